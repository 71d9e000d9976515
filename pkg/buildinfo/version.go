// Package buildinfo reports which famtree build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/famtree/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/famtree/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/famtree/pkg/buildinfo.Date=$(date -u +%Y-%m-%d)" ./cmd/famtree
//
// A binary built with "go install github.com/matzehuels/famtree/cmd/famtree@latest"
// carries no ldflags; [Resolve] then reads the module version and VCS
// revision that the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build description served by the CLI and the
// HTTP /health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolve returns the ldflags values, filling the ones left at their
// defaults from the embedded module and VCS data when present.
func Resolve() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && s.Value != "" {
				info.Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if info.Date == "unknown" && s.Value != "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns the build description on three lines.
func String() string {
	i := Resolve()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", i.Version, i.Commit, i.Date)
}

// Template is the cobra version template for the famtree root command.
func Template() string {
	i := Resolve()
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", i.Version, i.Commit, i.Date)
}
