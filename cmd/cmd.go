// Package cmd provides the pipecraft command root and the small set
// of helpers leaf command packages under cmd/<name> share, the same
// split the teacher keeps between its cmd package and cmd/<name>
// leaves.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Root is the top-level pipecraft command. Leaf packages register
// themselves against it from their own init(), mirroring
// backend/torrent/cmd's cmd.Root.AddCommand pattern.
var Root = &cobra.Command{
	Use:   "pipecraft",
	Short: "Compose and run sort/join/shard pipelines over bucket storage",
	Long: `pipecraft is a small command-line front end over the pipecraft
library: external sort, file-based joins, sharding and a bucket
storage substrate, all driven from flat files on the command line.`,
}

var logLevel string

func init() {
	Root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
}

// Execute configures logging from the persistent flags and runs Root.
func Execute() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	return Root.ExecuteContext(context.Background())
}

// CheckArgs prints a usage error and exits unless len(args) is within
// [min, max]; max < 0 means unbounded. Cobra's Args validators cover
// the common shapes, but several leaf commands need an asymmetric
// bound cobra doesn't express directly.
func CheckArgs(min, max int, command *cobra.Command, args []string) {
	if len(args) < min || (max >= 0 && len(args) > max) {
		fmt.Fprintf(os.Stderr, "Command %s needs between %d and %d arguments: got %d\n", command.Name(), min, max, len(args))
		os.Exit(1)
	}
}

// RemoteSplit splits a bucket key into its parent directory and leaf
// name: "a/b/c" -> ("a/b", "c"), a bare name's parent is ".", and the
// empty key splits to two empty strings.
func RemoteSplit(key string) (parent, leaf string) {
	if key == "" {
		return "", ""
	}
	dir, file := path.Split(key)
	switch dir {
	case "":
		dir = "."
	case "/":
		// keep as the root
	default:
		dir = strings.TrimSuffix(dir, "/")
	}
	return dir, file
}

// OpenInput opens path for reading, treating "-" as stdin.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// OpenOutput opens path for writing (truncating it), treating "-" as
// stdout. Closing the returned writer never closes stdout itself.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Must logs err and exits the process if it's non-nil. Leaf commands'
// cobra.Command.Run callbacks can't return an error themselves, so
// this is their uniform way of surfacing one.
func Must(err error) {
	if err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
