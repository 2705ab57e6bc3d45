package script

import (
	"os"
	"path/filepath"

	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/utils"
)

// ScriptName is the file written into the job's working directory.
const ScriptName = "run_queue.sh"

const (
	defaultJobName          = "job.py"
	defaultWorkingDirectory = "."
)

// Params holds the values substituted into a submission script.
type Params struct {
	JobName          string
	WorkingDirectory string
	Cores            normalize.Quantity
	MemoryMax        normalize.Quantity
	RunTimeMax       normalize.Quantity
	DependencyList   []string
	Command          string
	Extra            map[string]any // Queue or caller specific keys, e.g. "partition"
}

// Data builds the template context. Unset quantities and an empty
// dependency list are nil so that {{if}} treats them as absent.
func (p Params) Data() map[string]any {
	data := make(map[string]any, len(p.Extra)+7)
	for k, v := range p.Extra {
		data[k] = v
	}

	jobName := p.JobName
	if jobName == "" {
		jobName = defaultJobName
	}
	workdir := p.WorkingDirectory
	if workdir == "" {
		workdir = defaultWorkingDirectory
	}

	data["job_name"] = jobName
	data["working_directory"] = workdir
	data["cores"] = p.Cores.Value()
	data["memory_max"] = p.MemoryMax.Value()
	data["run_time_max"] = p.RunTimeMax.Value()
	data["command"] = p.Command
	if len(p.DependencyList) > 0 {
		data["dependency_list"] = p.DependencyList
	} else {
		data["dependency_list"] = nil
	}
	return data
}

// WriteScript writes content to dir/run_queue.sh, creating dir if needed.
func WriteScript(dir, content string) (string, error) {
	if dir == "" {
		dir = defaultWorkingDirectory
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, []byte(content), utils.PermFile); err != nil {
		return "", err
	}
	utils.PrintDebug("Wrote submission script %s", utils.StylePath(path))
	return path, nil
}
