// SPDX-License-Identifier: MPL-2.0

// Package s3pub uploads and publishes local files to an S3 bucket.
//
// Files are handled independently and sequentially: for each file the
// local MD5 is compared against the digest stored with the remote
// object, unchanged files are skipped, changed or new files are
// uploaded. There is no batching, no parallel transfer and no
// cross-file recovery; a failure on one file is reported and the next
// file proceeds.
package s3pub

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not authentication
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/charmbracelet/log"
)

// md5MetadataKey is the object metadata key holding the upload's MD5
// hex digest. S3 ETags are not plain MD5 for multipart uploads, so the
// digest is stored explicitly; the ETag is only a fallback for objects
// uploaded by other tools.
const md5MetadataKey = "kitbag-md5"

// ErrBucketDeclined is returned when the bucket does not exist and the
// caller declined to create it.
var ErrBucketDeclined = errors.New("bucket creation declined")

type (
	// API is the subset of the S3 client used by Uploader. *s3.Client
	// satisfies it; tests substitute a fake.
	API interface {
		HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
		CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
		HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
		PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
	}

	// Options configures an Uploader.
	Options struct {
		// Bucket is the target bucket name.
		Bucket string

		// Region is used for the bucket location constraint on creation.
		Region string

		// Prefix is prepended to every object key.
		Prefix string

		// Public uploads objects with a public-read ACL.
		Public bool

		// Force uploads every file regardless of remote state.
		Force bool

		// Confirm is consulted before creating a missing bucket. nil
		// declines.
		Confirm func(prompt string) (bool, error)

		// Logger defaults to log.Default() when nil.
		Logger *log.Logger
	}

	// Uploader drives the sync.
	Uploader struct {
		api    API
		opts   Options
		logger *log.Logger
	}

	// Action says what happened to one file.
	Action string

	// Outcome reports the handling of one local file.
	Outcome struct {
		Path string
		Key  string
		// Size is the local file size in bytes.
		Size int64
		Act  Action
		Err  error
	}
)

// Actions reported in Outcome.
const (
	ActionUploaded Action = "uploaded"
	ActionSkipped  Action = "skipped"
	ActionUpdated  Action = "updated"
	ActionFailed   Action = "failed"
)

// New creates an Uploader over the given client.
func New(api API, opts Options) *Uploader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{api: api, opts: opts, logger: logger}
}

// EnsureBucket checks the bucket exists, creating it (after
// confirmation) when it does not.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	_, err := u.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.opts.Bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("head bucket %s: %w", u.opts.Bucket, err)
	}

	ok := false
	if u.opts.Confirm != nil {
		ok, err = u.opts.Confirm(fmt.Sprintf("Bucket %q does not exist. Create it?", u.opts.Bucket))
		if err != nil {
			return fmt.Errorf("confirm bucket creation: %w", err)
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketDeclined, u.opts.Bucket)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(u.opts.Bucket)}
	// us-east-1 is the API default and rejects an explicit constraint.
	if u.opts.Region != "" && u.opts.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(u.opts.Region),
		}
	}

	if _, err := u.api.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", u.opts.Bucket, err)
	}

	u.logger.Info("created bucket", "bucket", u.opts.Bucket)
	return nil
}

// Sync uploads each local file in order, returning one Outcome per
// file. Per-file failures live in the outcomes; a failure never stops
// the remaining files.
func (u *Uploader) Sync(ctx context.Context, files []File) []Outcome {
	outcomes := make([]Outcome, 0, len(files))
	for _, f := range files {
		outcomes = append(outcomes, u.syncOne(ctx, f))
	}
	return outcomes
}

// Key applies the configured prefix to an expansion-time object key.
func (u *Uploader) Key(key string) string {
	if u.opts.Prefix != "" {
		return strings.TrimSuffix(u.opts.Prefix, "/") + "/" + key
	}
	return key
}

func (u *Uploader) syncOne(ctx context.Context, f File) Outcome {
	path := f.Path
	out := Outcome{Path: path, Key: u.Key(f.Key)}

	file, err := os.Open(path)
	if err != nil {
		out.Act, out.Err = ActionFailed, fmt.Errorf("open %s: %w", path, err)
		return out
	}
	defer file.Close() //nolint:errcheck // read-only

	info, err := file.Stat()
	if err != nil {
		out.Act, out.Err = ActionFailed, fmt.Errorf("stat %s: %w", path, err)
		return out
	}
	out.Size = info.Size()

	sum, err := digest(file)
	if err != nil {
		out.Act, out.Err = ActionFailed, fmt.Errorf("hash %s: %w", path, err)
		return out
	}

	if !u.opts.Force {
		same, remoteErr := u.remoteMatches(ctx, out.Key, sum)
		if remoteErr != nil {
			out.Act, out.Err = ActionFailed, remoteErr
			return out
		}
		if same {
			out.Act = ActionSkipped
			u.logger.Debug("unchanged, skipping", "key", out.Key)
			return out
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		out.Act, out.Err = ActionFailed, fmt.Errorf("rewind %s: %w", path, err)
		return out
	}

	if err := u.put(ctx, out.Key, file, info.Size(), sum); err != nil {
		out.Act, out.Err = ActionFailed, err
		return out
	}

	out.Act = ActionUploaded
	u.logger.Info("uploaded", "key", out.Key, "size", info.Size())
	return out
}

// remoteMatches reports whether the remote object exists with the same
// content digest. A missing object is simply "no match".
func (u *Uploader) remoteMatches(ctx context.Context, key string, sum [md5.Size]byte) (bool, error) {
	head, err := u.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}

	hexSum := hex.EncodeToString(sum[:])
	if stored, ok := head.Metadata[md5MetadataKey]; ok {
		return stored == hexSum, nil
	}

	// ETag fallback: for single-part uploads the ETag is the MD5 hex in
	// quotes. Multipart ETags contain a part-count suffix and never
	// match, which safely degrades to re-upload.
	etag := strings.Trim(aws.ToString(head.ETag), `"`)
	return etag == hexSum, nil
}

func (u *Uploader) put(ctx context.Context, key string, body io.Reader, size int64, sum [md5.Size]byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.opts.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentMD5:    aws.String(base64.StdEncoding.EncodeToString(sum[:])),
		ContentType:   aws.String(contentType(key)),
		Metadata:      map[string]string{md5MetadataKey: hex.EncodeToString(sum[:])},
	}
	if u.opts.Public {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := u.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// SetACL toggles the canned ACL on existing keys.
func (u *Uploader) SetACL(ctx context.Context, keys []string, public bool) []Outcome {
	acl := types.ObjectCannedACLPrivate
	if public {
		acl = types.ObjectCannedACLPublicRead
	}

	outcomes := make([]Outcome, 0, len(keys))
	for _, key := range keys {
		out := Outcome{Path: key, Key: key}
		_, err := u.api.PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(u.opts.Bucket),
			Key:    aws.String(key),
			ACL:    acl,
		})
		if err != nil {
			out.Act, out.Err = ActionFailed, fmt.Errorf("set acl on %s: %w", key, err)
		} else {
			out.Act = ActionUpdated
			u.logger.Info("acl updated", "key", key, "acl", string(acl))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Failed reports whether any outcome failed.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Act == ActionFailed {
			return true
		}
	}
	return false
}

func digest(r io.Reader) ([md5.Size]byte, error) {
	h := md5.New() //nolint:gosec // content fingerprint, not authentication
	if _, err := io.Copy(h, r); err != nil {
		return [md5.Size]byte{}, err
	}
	var sum [md5.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// contentType guesses from the extension, defaulting to octet-stream.
func contentType(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// isNotFound matches the S3 not-found shapes: HeadObject/HeadBucket
// return types.NotFound, other calls NoSuchKey/NoSuchBucket.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	return errors.As(err, &notFound) || errors.As(err, &noKey) || errors.As(err, &noBucket)
}
