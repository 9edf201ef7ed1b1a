// Command pipecraft is the command-line front end for the pipecraft
// library, mirroring rclone's split between a thin main and leaf
// command packages that register themselves against a shared root.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pipecraft/pipecraft/cmd"

	_ "github.com/pipecraft/pipecraft/cmd/bucket"
	_ "github.com/pipecraft/pipecraft/cmd/join"
	_ "github.com/pipecraft/pipecraft/cmd/shard"
	_ "github.com/pipecraft/pipecraft/cmd/sort"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("pipecraft failed")
		os.Exit(1)
	}
}
