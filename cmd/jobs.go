package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	jobsAll     bool
	jobsUser    string
	jobsCluster string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [id...]",
	Short: "Show jobs in the queue",
	Long: `Show the jobs of the current user, or of the whole queue with --all.

With job ids as arguments, only their normalized status is printed; jobs
no longer in the queue are reported as finished.`,
	Example: `  qadapter jobs                 # My jobs
  qadapter jobs --all           # Every job in the queue
  qadapter jobs --user janj     # Jobs of another user
  qadapter jobs 1234 1235       # Status of single jobs`,
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().BoolVarP(&jobsAll, "all", "a", false, "Show every job in the queue")
	jobsCmd.Flags().StringVarP(&jobsUser, "user", "u", "", "Show the jobs of this user")
	jobsCmd.Flags().StringVar(&jobsCluster, "cluster", "", "Cluster to query (default: cluster_primary)")
	jobsCmd.MarkFlagsMutuallyExclusive("all", "user")
}

func runJobs(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}

	qa, err := adapter.New(flags.configDirectory)
	if err != nil {
		return err
	}
	defer qa.Close()
	if jobsCluster != "" {
		if err := qa.SwitchCluster(jobsCluster); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if len(ids) > 0 {
		statuses, err := qa.GetStatusOfJobs(ids)
		if err != nil {
			return err
		}
		for i, id := range ids {
			fmt.Fprintf(w, "%d  %s\n", id, utils.StyleStatus(statuses[i]))
		}
		return nil
	}

	var table *scheduler.StatusTable
	switch {
	case jobsAll:
		table, err = qa.GetQueueStatus("")
	case jobsUser != "":
		table, err = qa.GetQueueStatus(jobsUser)
	default:
		table, err = qa.GetStatusOfMyJobs()
	}
	if err != nil {
		return err
	}
	if table.Len() == 0 {
		utils.PrintMessage("No jobs in the queue")
		return nil
	}
	printJobs(w, table)
	return nil
}

// printJobs writes one aligned row per job, in the column order of table.
func printJobs(w io.Writer, table *scheduler.StatusTable) {
	rows := [][]string{make([]string, len(table.Columns))}
	for i, c := range table.Columns {
		rows[0][i] = strings.ToUpper(c)
	}
	for _, job := range table.Jobs {
		row := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			row[i] = jobField(job, c)
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(table.Columns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	for r, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			pad := strings.Repeat(" ", widths[i]-len(cell))
			if r > 0 && table.Columns[i] == scheduler.ColumnStatus {
				cell = utils.StyleStatus(cell)
			}
			b.WriteString(cell + pad + "  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func jobField(job scheduler.Job, column string) string {
	switch column {
	case scheduler.ColumnJobID:
		return strconv.FormatInt(job.JobID, 10)
	case scheduler.ColumnUser:
		return job.User
	case scheduler.ColumnJobName:
		return job.JobName
	case scheduler.ColumnStatus:
		return job.Status
	case scheduler.ColumnWorkingDirectory:
		return job.WorkingDirectory
	case scheduler.ColumnCluster:
		return job.Cluster
	}
	return ""
}
