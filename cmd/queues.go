package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/cobra"
)

var queuesCluster string

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "Display the configured queues",
	Long: `Display the queues of the active cluster with their limits.

Shows queue type, queue_primary, the module clusters of a modular
configuration, and for every queue its core range, run time and memory
limits and the submission template.`,
	Example: `  qadapter queues                    # Queues of the primary cluster
  qadapter queues --cluster remote   # Queues of another cluster`,
	RunE: func(cmd *cobra.Command, args []string) error {
		qa, err := adapter.New(flags.configDirectory)
		if err != nil {
			return err
		}
		defer qa.Close()
		if queuesCluster != "" {
			if err := qa.SwitchCluster(queuesCluster); err != nil {
				return err
			}
		}
		printQueues(cmd.OutOrStdout(), qa.ActiveCluster(), qa.Config(), qa.QueueView())
		if bin, ok := submitBinaryFound(qa.Config()); !ok {
			utils.PrintHint("%s was not found in PATH, jobs cannot be submitted from this host", utils.StyleCommand(bin))
		}
		return nil
	},
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List the configured clusters",
	RunE: func(cmd *cobra.Command, args []string) error {
		qa, err := adapter.New(flags.configDirectory)
		if err != nil {
			return err
		}
		defer qa.Close()
		printClusters(cmd.OutOrStdout(), qa)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queuesCmd)
	rootCmd.AddCommand(clustersCmd)
	queuesCmd.Flags().StringVar(&queuesCluster, "cluster", "", "Cluster to show (default: cluster_primary)")
}

func printQueues(w io.Writer, cluster string, cfg *config.QueueConfig, rows []config.QueueRow) {
	fmt.Fprintln(w, "Queue Configuration:")
	fmt.Fprintf(w, "  Cluster:   %s\n", utils.StyleName(cluster))
	fmt.Fprintf(w, "  Type:      %s\n", utils.StyleInfo(cfg.QueueType))
	fmt.Fprintf(w, "  Primary:   %s\n", utils.StyleName(cfg.QueuePrimary))
	if cfg.HasClusters() {
		fmt.Fprintf(w, "  Modules:   %s\n", strings.Join(cfg.Clusters, ", "))
	}
	if cfg.SSH.Host != "" {
		fmt.Fprintf(w, "  SSH Host:  %s\n", utils.StylePath(cfg.SSH.Host))
	}
	if len(rows) == 0 {
		return
	}

	header := []string{"QUEUE", "CORES", "RUN_TIME_MAX", "MEMORY_MAX", "SCRIPT", "CLUSTER"}
	table := [][]string{header}
	for _, r := range rows {
		table = append(table, []string{
			r.Name, coreRange(r.CoresMin, r.CoresMax), dash(r.RunTimeMax), dash(r.MemoryMax), dash(r.Script), dash(r.Cluster),
		})
	}
	widths := make([]int, len(header))
	for _, row := range table {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	fmt.Fprintln(w)
	for _, row := range table {
		var b strings.Builder
		for i, cell := range row {
			fmt.Fprintf(&b, "  %-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func printClusters(w io.Writer, qa *adapter.QueueAdapter) {
	for _, name := range qa.ListClusters() {
		if name == qa.ActiveCluster() {
			fmt.Fprintf(w, "* %s\n", utils.StyleHighlight(name))
			continue
		}
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// submitBinaryFound looks up the submit program of a local queue type in PATH.
// REMOTE configurations always pass.
func submitBinaryFound(cfg *config.QueueConfig) (string, bool) {
	t, err := scheduler.ParseType(cfg.QueueType)
	if err != nil || t == scheduler.TypeRemote {
		return "", true
	}
	commands, err := scheduler.ForType(t)
	if err != nil {
		return "", true
	}
	bin := commands.SubmitCommand()[0]
	return bin, config.ValidateBinary(bin)
}

func coreRange(lo, hi string) string {
	switch {
	case lo == "" && hi == "":
		return "-"
	case lo == "":
		return "1-" + hi
	case hi == "":
		return lo + "+"
	}
	return lo + "-" + hi
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
