// Package misc keeps build information shared by all parts of the program.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set with -ldflags "-X respimg/misc.version=... -X respimg/misc.gitHash=..." at build time.
var (
	version = "dev"
	gitHash = "unknown"
	appName = ""
)

// GetAppName returns program name without extension.
func GetAppName() string {
	if len(appName) > 0 {
		return appName
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git hash program was built from.
func GetGitHash() string {
	return gitHash
}
