package cwkey

import (
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
)

// Set at build time via `-ldflags "-X 'github.com/doismellburning/cwkey/src.CWKEY_VERSION=X'"`
var CWKEY_VERSION string

// Modules that talk to the radio.  Their versions matter when a PTT or tone method misbehaves.
var hardwareModules = []string{
	"github.com/warthog618/go-gpiocdev",
	"github.com/pkg/term",
	"github.com/gordonklaus/portaudio",
	"github.com/jochenvg/go-udev",
	"golang.org/x/sys",
}

func buildSetting(bi *debug.BuildInfo, key string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return ""
}

// revision is the VCS commit, marked when the tree was modified.
func revision(bi *debug.BuildInfo) string {
	var commit = buildSetting(bi, "vcs.revision")
	if commit == "" {
		return "UNKNOWN"
	}

	if dirty, err := strconv.ParseBool(buildSetting(bi, "vcs.modified")); err == nil && dirty {
		commit += "-DIRTY"
	}

	return commit
}

func moduleVersion(bi *debug.BuildInfo, path string) string {
	for _, dep := range bi.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version + " (replaced)"
		}
		return dep.Version
	}

	return "not linked"
}

/*-------------------------------------------------------------------
 *
 * Name:        printVersion
 *
 * Inputs:	verbose	- Also list the Go version and the versions
 *			  of the hardware libraries.
 *
 *--------------------------------------------------------------------*/

func printVersion(w io.Writer, verbose bool) {
	var version = CWKEY_VERSION
	if version == "" {
		version = "!UNKNOWN!"
	}

	var buildInfo, ok = debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintf(w, "cwkey - Version %s (no build information)\n", version)
		return
	}

	fmt.Fprintf(w, "cwkey - Version %s (revision %s)\n", version, revision(buildInfo))

	if !verbose {
		return
	}

	fmt.Fprintf(w, "\n%-40s %s\n", "go", buildInfo.GoVersion)
	for _, m := range hardwareModules {
		fmt.Fprintf(w, "%-40s %s\n", m, moduleVersion(buildInfo, m))
	}
}
