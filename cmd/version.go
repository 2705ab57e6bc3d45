package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

var (
	versionRemote  bool
	versionCluster string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally compared with a remote installation",
	Long: `Print the qadapter version.

With --remote the version installed on the host of a REMOTE cluster is
queried over SSH. Both sides must agree on major and minor version for
the relay flags to be understood.`,
	Example: `  qadapter version
  qadapter version --remote --cluster remote`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionRemote, "remote", false, "Compare with the version on the remote host")
	versionCmd.Flags().StringVar(&versionCluster, "cluster", "", "REMOTE cluster to query (default: cluster_primary)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "qadapter version %s\n", config.VERSION)
	if !versionRemote {
		return nil
	}

	qa, err := adapter.New(flags.configDirectory)
	if err != nil {
		return err
	}
	defer qa.Close()
	if versionCluster != "" {
		if err := qa.SwitchCluster(versionCluster); err != nil {
			return err
		}
	}
	remote, ok := qa.Active().(*adapter.Remote)
	if !ok {
		return fmt.Errorf("cluster %s is not a REMOTE cluster", qa.ActiveCluster())
	}
	remoteVersion, compatible, err := remote.CheckRemoteVersion()
	if err != nil {
		return err
	}
	printVersionComparison(w, remoteVersion, compatible)
	return nil
}

func printVersionComparison(w io.Writer, remoteVersion string, compatible bool) {
	fmt.Fprintf(w, "remote version %s\n", remoteVersion)
	switch {
	case !compatible:
		utils.PrintWarning("Versions differ in major or minor; update one side before submitting")
	case compareVersions(config.VERSION, remoteVersion) < 0:
		utils.PrintNote("The remote installation is newer (%s)", utils.StyleNumber(remoteVersion))
	case compareVersions(config.VERSION, remoteVersion) > 0:
		utils.PrintNote("The remote installation is older (%s)", utils.StyleNumber(remoteVersion))
	}
}

// compareVersions compares two semantic versions. It returns:
//
//	-1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
//
// Pre-release data follows semver rules ("1.2.3-alpha" < "1.2.3"). Build
// metadata breaks ties lexicographically.
func compareVersions(v1, v2 string) int {
	if !strings.HasPrefix(v1, "v") {
		v1 = "v" + v1
	}
	if !strings.HasPrefix(v2, "v") {
		v2 = "v" + v2
	}
	c1 := semver.Canonical(v1)
	c2 := semver.Canonical(v2)
	if c1 == "" || c2 == "" {
		// Unparsable versions sort first
		return -1
	}
	if res := semver.Compare(c1, c2); res != 0 {
		return res
	}
	b1 := semver.Build(v1)
	b2 := semver.Build(v2)
	if b1 != b2 {
		if b1 < b2 {
			return -1
		}
		return 1
	}
	return 0
}
