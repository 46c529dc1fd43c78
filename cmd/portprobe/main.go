// Command portprobe scans a range of TCP ports on one host.
package main

import (
	"fmt"
	"os"

	"github.com/anstrom/portprobe/cmd/cli"
)

// Build information, set by ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

const banner = `                 _                   _
 _ __   ___  _ __| |_ _ __  _ __ ___ | |__   ___
| '_ \ / _ \| '__| __| '_ \| '__/ _ \| '_ \ / _ \
| |_) | (_) | |  | |_| |_) | | | (_) | |_) |  __/
| .__/ \___/|_|   \__| .__/|_|  \___/|_.__/ \___|
|_|                  |_|
`

func main() {
	fmt.Fprint(os.Stderr, banner)

	cli.SetVersion(version, commit, buildTime)
	os.Exit(cli.Execute())
}
