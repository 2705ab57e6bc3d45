package adapter

import (
	"fmt"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/script"
)

// Basic submits to the queues of one queue configuration.
type Basic struct {
	*Core
	config    *config.QueueConfig
	templates map[string]*script.Template
}

// NewBasic loads every queue template of cfg. Queues without a script use
// the scheduler's built-in template.
func NewBasic(cfg *config.QueueConfig, executor execpkg.Executor) (*Basic, error) {
	t, err := scheduler.ParseType(cfg.QueueType)
	if err != nil {
		return nil, err
	}

	var commands scheduler.Commands
	var fallback *script.Template
	if t != scheduler.TypeRemote {
		if commands, err = scheduler.ForType(t); err != nil {
			return nil, err
		}
		fallback, err = script.Parse(strings.ToLower(string(t))+" (built-in)", commands.DefaultTemplate())
		if err != nil {
			return nil, err
		}
	}

	b := &Basic{
		Core:      newCore(commands, fallback, executor),
		config:    cfg,
		templates: make(map[string]*script.Template, len(cfg.Queues)),
	}
	for _, name := range cfg.QueueNames() {
		q := cfg.Queues[name]
		if q.Script == "" {
			if fallback != nil {
				b.templates[name] = fallback
			}
			continue
		}
		tmpl, err := script.Load(cfg.Directory, q.Script)
		if err != nil {
			return nil, err
		}
		b.templates[name] = tmpl
	}
	return b, nil
}

func (b *Basic) Config() *config.QueueConfig  { return b.config }
func (b *Basic) QueueList() []string          { return b.config.QueueNames() }
func (b *Basic) QueueView() []config.QueueRow { return b.config.View() }

// SubmitJob applies the queue limits and submits with the queue template.
func (b *Basic) SubmitJob(req SubmitRequest) (int64, bool, error) {
	q, params, err := b.prepare(req)
	if err != nil {
		return 0, false, err
	}
	return b.submit("", b.templates[q.Name], params)
}

// CheckQueueParameters clamps the request to the limits of queue.
// An empty queue name selects queue_primary.
func (b *Basic) CheckQueueParameters(queue string, cores, runTime, memory normalize.Quantity) (normalize.Quantity, normalize.Quantity, normalize.Quantity, error) {
	q, err := b.queue(queue)
	if err != nil {
		return cores, runTime, memory, err
	}
	cores, runTime, memory = normalize.CheckQueueParameters(q.Limits, cores, runTime, memory)
	return cores, runTime, memory, nil
}

func (b *Basic) queue(name string) (*config.Queue, error) {
	if name == "" {
		name = b.config.QueuePrimary
	}
	q, ok := b.config.Queue(name)
	if !ok {
		return nil, &QueueNotFoundError{Queue: name, Available: b.config.QueueNames()}
	}
	return q, nil
}

// prepare validates a request and builds the template parameters for its queue.
func (b *Basic) prepare(req SubmitRequest) (*config.Queue, script.Params, error) {
	if err := normalize.RequireCommand(req.Command); err != nil {
		return nil, script.Params{}, err
	}
	q, err := b.queue(req.Queue)
	if err != nil {
		return nil, script.Params{}, err
	}
	if _, ok := b.templates[q.Name]; !ok {
		return nil, script.Params{}, fmt.Errorf("queue %s has no submission script", q.Name)
	}

	cores, runTime, memory := normalize.CheckQueueParameters(q.Limits, req.Cores, req.RunTimeMax, req.MemoryMax)

	extra := make(map[string]any, len(q.Extra)+len(req.Extra)+1)
	for k, v := range q.Extra {
		extra[k] = v
	}
	extra["queue"] = q.Name
	for k, v := range req.Extra {
		extra[k] = v
	}

	return q, script.Params{
		JobName:          req.JobName,
		WorkingDirectory: req.WorkingDirectory,
		Cores:            cores,
		MemoryMax:        memory,
		RunTimeMax:       runTime,
		DependencyList:   req.DependencyList,
		Command:          req.Command,
		Extra:            extra,
	}, nil
}
