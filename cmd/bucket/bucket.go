// Package bucket provides the "pipecraft bucket" command group: put,
// get, ls and rm against a "<protocol>://<bucket>/<key>" URL, resolved
// to a concrete bucket.Bucket the way the teacher's cmd.NewFsDir
// resolves a "remote:path" argument to a concrete fs.Fs.
package bucket

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipecraft/pipecraft/bucket"
	"github.com/pipecraft/pipecraft/bucket/local"
	"github.com/pipecraft/pipecraft/bucket/s3"
	"github.com/pipecraft/pipecraft/cmd"
)

var (
	region        string
	isPublic      bool
	allowOverride bool
	recursive     bool
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	flags := commandDefinition.PersistentFlags()
	flags.StringVar(&region, "region", "us-east-1", "AWS region, for s3:// buckets")

	commandDefinition.AddCommand(putCommand, getCommand, lsCommand, rmCommand)

	putCommand.Flags().BoolVar(&isPublic, "public", false, "upload with a public-read ACL (s3 only)")
	putCommand.Flags().BoolVar(&allowOverride, "force", false, "overwrite an existing object")
	lsCommand.Flags().BoolVarP(&recursive, "recursive", "r", false, "list nested folders too")
}

var commandDefinition = &cobra.Command{
	Use:   "bucket",
	Short: "Put, get, list and remove objects in a bucket",
}

// openURL resolves a "<protocol>://<bucket>/<key>" URL into its
// concrete bucket.Bucket and bucket-relative key.
func openURL(url string) (bucket.Bucket, string, error) {
	protocol, bucketName, key, err := bucket.ParsePath(url)
	if err != nil {
		return nil, "", err
	}
	switch protocol {
	case "file":
		root := bucketName
		if root == "" {
			root = "/"
		}
		return local.New(root), key, nil
	case "s3":
		b, err := s3.New(bucketName, region)
		return b, key, err
	default:
		return nil, "", fmt.Errorf("bucket: unknown protocol %q", protocol)
	}
}

var putCommand = &cobra.Command{
	Use:   "put <url> <localfile>",
	Short: "Upload a local file to a bucket URL",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Must(runPut(args[0], args[1]))
	},
}

func runPut(url, path string) error {
	b, key, err := openURL(url)
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	_, err = bucket.PutFile(context.Background(), b, path, key, contentType, isPublic, allowOverride)
	return err
}

var getCommand = &cobra.Command{
	Use:   "get <url> <localfile>",
	Short: "Download a bucket object to a local file",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Must(runGet(args[0], args[1]))
	},
}

func runGet(url, path string) error {
	b, key, err := openURL(url)
	if err != nil {
		return err
	}
	return b.Get(context.Background(), key, path)
}

var lsCommand = &cobra.Command{
	Use:   "ls <url>",
	Short: "List objects under a bucket URL",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Must(runLs(args[0]))
	},
}

func runLs(url string) error {
	b, key, err := openURL(url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	it, err := b.ListObjects(ctx, bucket.AsFolder(key), recursive)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		m, err := it.Next(ctx)
		if err == bucket.ErrIteratorDone {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%10d  %s\n", m.Length, m.Path)
	}
}

var rmCommand = &cobra.Command{
	Use:   "rm <url>",
	Short: "Remove an object from a bucket",
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Must(runRm(args[0]))
	},
}

func runRm(url string) error {
	b, key, err := openURL(url)
	if err != nil {
		return err
	}
	return b.Delete(context.Background(), key)
}
