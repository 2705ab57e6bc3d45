package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	debugMode bool
	quietMode bool
	flags     relayFlags
)

var rootCmd = &cobra.Command{
	Use:   "qadapter",
	Short: "qadapter: submit, query and delete jobs on SLURM, SGE, TORQUE, LSF, MOAB, FLUX and remote clusters.",
	Long: `qadapter drives HPC batch queues through one interface.

The queue configuration (queue.yaml or clusters.yaml) is read from the
directory given with --config_directory. The relay flags below are also
what a REMOTE adapter invokes on the far side of its SSH connection.`,
	Example: `  qadapter -f ~/.queues --submit --queue slurm --cores 4 --command "python run.py"
  qadapter -f ~/.queues --status
  qadapter -f ~/.queues --delete --id 1234
  qadapter --list --working_directory /scratch/job`,
	Version:       config.VERSION,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Built-in defaults
		config.LoadDefaults()

		// Step 2: Config file and QADAPTER_* environment
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}
		config.LoadFromViper()

		// Step 3: Command-line flags
		if debugMode {
			config.Global.Debug = true
		}
		if quietMode {
			config.Global.Quiet = true
		}
		utils.DebugMode = config.Global.Debug
		utils.QuietMode = config.Global.Quiet
		if flags.configDirectory == "" {
			flags.configDirectory = config.Global.ConfigDirectory
		}

		utils.PrintDebug("qadapter Version: %s", utils.StyleInfo(config.VERSION))
		utils.PrintDebug("Config Directory: %s", utils.StylePath(flags.configDirectory))
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		if !flags.anyMode() {
			return cmd.Help()
		}
		flags.idSet = cmd.Flags().Changed("id")
		return runRelay(cmd.OutOrStdout(), flags, openAdapter)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.PrintError("%v", err)
		if errors.Is(err, adapter.ErrNoConfig) && utils.IsInteractiveShell() {
			utils.PrintHint("Create queue.yaml or clusters.yaml there, or pass --config_directory")
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	pf.BoolVar(&quietMode, "quiet", false, "Only print errors and machine-readable output")
	pf.StringVarP(&flags.configDirectory, "config_directory", "f", "", "Directory holding queue.yaml or clusters.yaml (default from config)")

	f := rootCmd.Flags()
	f.BoolVarP(&flags.submit, "submit", "p", false, "Submit a job")
	f.BoolVarP(&flags.reservation, "reservation", "r", false, "Enable the reservation of a job")
	f.BoolVarP(&flags.deleteJob, "delete", "d", false, "Delete a job")
	f.BoolVarP(&flags.status, "status", "s", false, "Print the queue status as JSON")
	f.BoolVarP(&flags.list, "list", "l", false, "Print the files and directories below --working_directory as JSON")

	f.StringVarP(&flags.queue, "queue", "q", "", "Queue to submit to (default: queue_primary)")
	f.StringVarP(&flags.jobName, "job_name", "j", "", "Job name")
	f.StringVarP(&flags.workingDirectory, "working_directory", "w", ".", "Working directory of the job")
	f.StringVarP(&flags.cores, "cores", "n", "", "Number of cores")
	f.StringVarP(&flags.memory, "memory", "m", "", "Memory limit, e.g. 4G")
	f.StringVarP(&flags.runTime, "run_time", "t", "", "Run time limit in seconds")
	f.StringArrayVarP(&flags.dependencies, "dependency", "b", nil, "Job id this job depends on (repeatable)")
	f.StringVarP(&flags.command, "command", "c", "", "Command the job runs")
	f.Int64VarP(&flags.id, "id", "i", 0, "Job id for --delete and --reservation")

	rootCmd.MarkFlagsMutuallyExclusive("submit", "reservation", "delete", "status", "list")
	rootCmd.SetVersionTemplate(fmt.Sprintf("qadapter version %s\n", config.VERSION))
}
