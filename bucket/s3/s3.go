// Package s3 is a real AWS S3-backed bucket.Bucket (SPEC_FULL.md §4.6's
// domain-stack addition), grounded directly on the teacher's own
// backend/s3/s3.go session/client construction and request shapes
// (s3.New over a session, *Input request structs, *http.Request.Presign
// for signed URLs) rather than inventing a bespoke S3 surface - this
// package *is* the bucket.Bucket contract, nothing more.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pipecraft/pipecraft/bucket"
)

// Bucket is a bucket.Bucket backed by a single AWS S3 bucket.
type Bucket struct {
	Name   string
	Client *s3.S3
}

// New builds a Bucket over bucketName using a session constructed the
// same way backend/s3's NewFs does (credentials/region resolved from
// the environment/shared config unless overridden by region).
func New(bucketName, region string) (*Bucket, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Bucket{Name: bucketName, Client: s3.New(sess)}, nil
}

func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, length int64, contentType string, isPublic, allowOverride bool) (bucket.Metadata, error) {
	var zero bucket.Metadata
	if bucket.IsFolder(key) {
		return zero, fmt.Errorf("bucket/s3: key %q denotes a folder", key)
	}
	if !allowOverride {
		if _, err := b.Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)}); err == nil {
			return zero, fmt.Errorf("bucket/s3: key %q already exists", key)
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}
	req := &s3.PutObjectInput{
		Bucket: aws.String(b.Name),
		Key:    aws.String(key),
		Body:   strings.NewReader(string(data)),
	}
	if contentType != "" {
		req.ContentType = aws.String(contentType)
	}
	if isPublic {
		req.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}
	if _, err := b.Client.PutObjectWithContext(ctx, req); err != nil {
		return zero, err
	}
	return b.GetObjectMetadata(ctx, key)
}

func (b *Bucket) Get(ctx context.Context, key string, targetPath string) error {
	r, _, err := b.GetAsStream(ctx, key, 0)
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	return err
}

func (b *Bucket) GetAsStream(ctx context.Context, key string, chunkSize int) (io.ReadCloser, int64, error) {
	out, err := b.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, bucket.ErrNotFound
		}
		return nil, 0, err
	}
	length := int64(0)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}
	return out.Body, length, nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)})
	return err
}

func (b *Bucket) CopyToAnotherBucket(ctx context.Context, fromKey string, dst bucket.Bucket, toKey string) error {
	other, ok := dst.(*Bucket)
	if !ok {
		r, length, err := b.GetAsStream(ctx, fromKey, 0)
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = dst.Put(ctx, toKey, r, length, "", false, true)
		return err
	}
	_, err := other.Client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(other.Name),
		Key:        aws.String(toKey),
		CopySource: aws.String(bucket.JoinPath(b.Name, fromKey)),
	})
	return err
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	if bucket.IsFolder(key) {
		return false, nil
	}
	_, err := b.Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Bucket) GetObjectMetadata(ctx context.Context, key string) (bucket.Metadata, error) {
	var zero bucket.Metadata
	if bucket.IsFolder(key) {
		return zero, bucket.ErrNotFound
	}
	out, err := b.Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return zero, bucket.ErrNotFound
		}
		return zero, err
	}
	m := bucket.Metadata{Path: key}
	if out.ContentLength != nil {
		m.Length = *out.ContentLength
	}
	if out.LastModified != nil {
		m.LastModified = *out.LastModified
	}
	return m, nil
}

func (b *Bucket) ListObjects(ctx context.Context, folderPath string, recursive bool) (bucket.ObjectIterator, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Name),
		Prefix: aws.String(folderPath),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var items []bucket.Metadata
	err := b.Client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			m := bucket.Metadata{Path: aws.StringValue(obj.Key)}
			if obj.Size != nil {
				m.Length = *obj.Size
			}
			if obj.LastModified != nil {
				m.LastModified = *obj.LastModified
			}
			items = append(items, m)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return &sliceIterator{items: items}, nil
}

func (b *Bucket) Compose(ctx context.Context, sources []string, targetPath string, removeSources bool) error {
	if len(sources) == 0 {
		return fmt.Errorf("bucket/s3: compose requires at least one source")
	}
	if _, err := b.Client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.Name),
		Key:        aws.String(targetPath),
		CopySource: aws.String(bucket.JoinPath(b.Name, sources[0])),
	}); err != nil {
		return err
	}
	for _, src := range sources[1:] {
		r, _, err := b.GetAsStream(ctx, src, 0)
		if err != nil {
			return err
		}
		current, _, err := b.GetAsStream(ctx, targetPath, 0)
		if err != nil {
			_ = r.Close()
			return err
		}
		combined := io.MultiReader(current, r)
		data, err := io.ReadAll(combined)
		_ = r.Close()
		_ = current.Close()
		if err != nil {
			return err
		}
		if _, err := b.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.Name),
			Key:    aws.String(targetPath),
			Body:   strings.NewReader(string(data)),
		}); err != nil {
			return err
		}
	}
	if removeSources {
		for _, src := range sources {
			_ = b.Delete(ctx, src)
		}
	}
	return nil
}

// SignedReadURL/SignedUploadURL implement bucket.SignedURLer via the
// SDK's own request presigning, the same call backend/s3 uses for its
// "link" command (req.Presign(expire)).
func (b *Bucket) SignedReadURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	req, _ := b.Client.GetObjectRequest(&s3.GetObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)})
	return req.Presign(expire)
}

// SignedUploadURL ignores maxSize: the presigned PutObject request
// carries no upload size limit.
func (b *Bucket) SignedUploadURL(ctx context.Context, key string, expire time.Duration, maxSize int64, contentType string) (string, error) {
	input := &s3.PutObjectInput{Bucket: aws.String(b.Name), Key: aws.String(key)}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, _ := b.Client.PutObjectRequest(input)
	return req.Presign(expire)
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}

type sliceIterator struct {
	items []bucket.Metadata
	idx   int
}

func (it *sliceIterator) Next(ctx context.Context) (bucket.Metadata, error) {
	if it.idx >= len(it.items) {
		return bucket.Metadata{}, bucket.ErrIteratorDone
	}
	m := it.items[it.idx]
	it.idx++
	return m, nil
}

func (it *sliceIterator) Close() error { return nil }
