// Package version carries build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitRelease is the release tag, e.g. v0.3.0.
	GitRelease = "dev"
	// GitCommit is the full commit hash.
	GitCommit = "unknown"
	// GitCommitDate is the commit date in RFC 3339.
	GitCommitDate = "unknown"
	// GoInfo is the toolchain and platform the binary was built with.
	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
