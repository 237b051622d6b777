// Package storage keeps uploaded media in an S3-compatible bucket (Cloudflare
// R2 in production) and maps objects to their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Folders used by the admin panel.
const (
	FolderUploads       = "uploads"
	FolderProjectImages = "projects/images"
	FolderProfilePhotos = "profile-photos"
)

const deleteConcurrency = 4

var log = logrus.WithField("component", "storage")

// ErrNotConfigured is returned by New when a required setting is missing.
var ErrNotConfigured = errors.New("storage: bucket not configured")

// Config holds the bucket connection settings.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	Region          string
}

// Configured reports whether every required setting is present.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.Bucket != "" && c.PublicURL != ""
}

// Object is a file to upload.
type Object struct {
	Name        string
	ContentType string
	Body        []byte
}

// Uploaded describes a stored object.
type Uploaded struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Bucket uploads to and deletes from one bucket.
type Bucket struct {
	api       objectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// New connects to the bucket described by cfg.
func New(ctx context.Context, cfg Config) (*Bucket, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return newBucket(client, cfg.Bucket, cfg.PublicURL), nil
}

func newBucket(api objectAPI, bucket, publicURL string) *Bucket {
	return &Bucket{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// PublicHost returns the host of the public URL, or "" if it has none.
func (b *Bucket) PublicHost() string {
	u, err := url.Parse(b.publicURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Upload stores obj under folder with a unique name.
func (b *Bucket) Upload(ctx context.Context, obj Object, folder string) (Uploaded, error) {
	if folder = strings.Trim(folder, "/"); folder == "" {
		folder = FolderUploads
	}
	key := b.newKey(folder, obj.Name)

	_, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("storage: upload %s: %w", key, err)
	}
	log.WithFields(logrus.Fields{"key": key, "bytes": len(obj.Body)}).Info("uploaded object")
	return Uploaded{URL: b.publicURL + "/" + key, Key: key}, nil
}

func (b *Bucket) newKey(folder, name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "bin"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s.%s", folder, b.now().UnixMilli(), id, strings.ToLower(ext))
}

// KeyFromURL extracts the object key from a public URL. A value without a
// scheme is taken as a key already.
func KeyFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		key := strings.TrimPrefix(raw, "/")
		return key, key != ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	return key, key != ""
}

// Delete removes the object behind url. Failures are logged, never returned.
func (b *Bucket) Delete(ctx context.Context, rawURL string) bool {
	key, ok := KeyFromURL(rawURL)
	if !ok {
		log.WithField("url", rawURL).Warn("cannot extract object key")
		return false
	}
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		entry := log.WithFields(logrus.Fields{"key": key, "error": err})
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			entry = entry.WithField("code", apiErr.ErrorCode())
		}
		entry.Warn("delete object failed")
		return false
	}
	log.WithField("key", key).Info("deleted object")
	return true
}

// DeleteAll deletes every url concurrently and reports how many succeeded.
func (b *Bucket) DeleteAll(ctx context.Context, urls []string) (deleted, failed int) {
	var ok, bad atomic.Int64
	var g errgroup.Group
	g.SetLimit(deleteConcurrency)
	for _, u := range urls {
		g.Go(func() error {
			if b.Delete(ctx, u) {
				ok.Add(1)
			} else {
				bad.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(ok.Load()), int(bad.Load())
}
