// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kitbag/internal/s3pub"
	"kitbag/internal/tui"
)

var (
	s3Public    bool
	s3Force     bool
	s3Recursive bool
	s3Prefix    string
	s3Yes       bool

	s3Cmd = &cobra.Command{
		Use:   "s3",
		Short: "Upload and publish files to S3",
	}

	s3PutCmd = &cobra.Command{
		Use:   "put <bucket> <files/globs...>",
		Short: "Upload files, skipping ones unchanged remotely",
		Long: `Uploads files to an S3 bucket sequentially. For each file the local
MD5 digest is compared against the digest stored with the remote
object; unchanged files are skipped. A missing bucket is created after
confirmation.

Credentials come from the standard AWS environment variables or shared
config, with fallback values from the kitbag config file.`,
		Example: `  kitbag s3 put my-site '*.html' css/
  kitbag s3 put my-site ./public --recursive --public
  kitbag s3 put my-site build/app.wasm --prefix assets/ --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: runS3Put,
	}

	s3ACLCmd = &cobra.Command{
		Use:   "acl <bucket> <keys...>",
		Short: "Toggle the canned ACL on existing objects",
		Example: `  kitbag s3 acl my-site index.html --public
  kitbag s3 acl my-site secret.txt`,
		Args: cobra.MinimumNArgs(2),
		RunE: runS3ACL,
	}
)

func init() {
	s3PutCmd.Flags().BoolVar(&s3Public, "public", false, "upload with a public-read ACL")
	s3PutCmd.Flags().BoolVar(&s3Force, "force", false, "upload even when the remote copy is unchanged")
	s3PutCmd.Flags().BoolVarP(&s3Recursive, "recursive", "r", false, "descend into directories")
	s3PutCmd.Flags().StringVar(&s3Prefix, "prefix", "", "object key prefix")
	s3PutCmd.Flags().BoolVarP(&s3Yes, "yes", "y", false, "assume yes for confirmation prompts")

	s3ACLCmd.Flags().BoolVar(&s3Public, "public", false, "set public-read instead of private")

	s3Cmd.AddCommand(s3PutCmd)
	s3Cmd.AddCommand(s3ACLCmd)
}

// bucketAndFiles resolves the bucket argument. When a default bucket
// is configured and the first argument names something on disk, all
// arguments are treated as files.
func bucketAndFiles(args []string) (string, []string, error) {
	if cfg.S3.DefaultBucket != "" {
		if _, err := os.Stat(args[0]); err == nil {
			return cfg.S3.DefaultBucket, args, nil
		}
	}
	if len(args) < 2 {
		if cfg.S3.DefaultBucket != "" {
			return cfg.S3.DefaultBucket, args, nil
		}
		return "", nil, fmt.Errorf("usage: kitbag s3 put <bucket> <files/globs...>")
	}
	return args[0], args[1:], nil
}

func runS3Put(cmd *cobra.Command, args []string) error {
	bucket, fileArgs, err := bucketAndFiles(args)
	if err != nil {
		return err
	}

	files, err := s3pub.Expand(fileArgs, s3Recursive)
	if err != nil {
		return err
	}

	client, err := s3pub.NewClient(cmd.Context(), cfg.S3)
	if err != nil {
		return err
	}

	uploader := s3pub.New(client, s3pub.Options{
		Bucket:  bucket,
		Region:  cfg.S3.Region,
		Prefix:  s3Prefix,
		Public:  s3Public,
		Force:   s3Force,
		Confirm: tui.Confirmer(s3Yes),
	})

	if err := uploader.EnsureBucket(cmd.Context()); err != nil {
		return err
	}

	outcomes := uploader.Sync(cmd.Context(), files)
	printOutcomes(outcomes)

	if s3pub.Failed(outcomes) {
		return &ExitError{Code: 1, Err: fmt.Errorf("some uploads failed")}
	}
	return nil
}

func runS3ACL(cmd *cobra.Command, args []string) error {
	bucket, keys := args[0], args[1:]

	client, err := s3pub.NewClient(cmd.Context(), cfg.S3)
	if err != nil {
		return err
	}

	uploader := s3pub.New(client, s3pub.Options{Bucket: bucket})
	outcomes := uploader.SetACL(cmd.Context(), keys, s3Public)
	printOutcomes(outcomes)

	if s3pub.Failed(outcomes) {
		return &ExitError{Code: 1, Err: fmt.Errorf("some ACL updates failed")}
	}
	return nil
}

func printOutcomes(outcomes []s3pub.Outcome) {
	for _, out := range outcomes {
		switch out.Act {
		case s3pub.ActionUploaded:
			fmt.Fprintf(os.Stdout, "%s %s (%s)\n",
				SuccessStyle.Render("↑"), PathStyle.Render(out.Key), humanize.Bytes(uint64(out.Size)))
		case s3pub.ActionSkipped:
			fmt.Fprintf(os.Stdout, "%s %s unchanged\n", SubtitleStyle.Render("="), out.Key)
		case s3pub.ActionUpdated:
			fmt.Fprintf(os.Stdout, "%s %s\n", SuccessStyle.Render("✓"), out.Key)
		case s3pub.ActionFailed:
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", ErrorStyle.Render("✗"), out.Path, out.Err)
		}
	}
}
