package adapter

import (
	"fmt"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/utils"
	"golang.org/x/mod/semver"
)

// RemoteVersion asks the remote installation for its version.
func (r *Remote) RemoteVersion() (string, error) {
	out, ok, err := r.run(r.remoteCommand + " --version")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if !ok || len(fields) == 0 {
		return "", fmt.Errorf("%s --version failed on %s", r.remoteCommand, r.ssh.Host)
	}
	return fields[len(fields)-1], nil
}

// CheckRemoteVersion warns when the remote major.minor version differs from
// this build. It returns the remote version and whether the two are compatible.
func (r *Remote) CheckRemoteVersion() (string, bool, error) {
	remote, err := r.RemoteVersion()
	if err != nil {
		return "", false, err
	}
	if !SameMajorMinor(remote, config.VERSION) {
		utils.PrintWarning("Remote version %s does not match local version %s",
			utils.StyleNumber(remote), utils.StyleNumber(config.VERSION))
		return remote, false, nil
	}
	return remote, true, nil
}

// majorMinor returns "vMAJOR.MINOR", or "" if version is not semantic.
func majorMinor(version string) string {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	c := semver.Canonical(version)
	if c == "" {
		return ""
	}
	return semver.MajorMinor(c)
}

// SameMajorMinor reports whether two versions agree on major and minor.
// Unparsable versions never match.
func SameMajorMinor(a, b string) bool {
	ma := majorMinor(a)
	return ma != "" && ma == majorMinor(b)
}
