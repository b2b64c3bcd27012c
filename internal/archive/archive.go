// Package archive stores bulk export files in object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/stock-ledger/internal/config"
)

// ErrDisabled is returned when no archive bucket is configured.
var ErrDisabled = errors.New("export archive not configured")

// Archiver uploads export payloads under a key.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// S3Archiver writes exports to a single S3 (or MinIO) bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver builds an archiver from the export settings. It returns
// ErrDisabled when no bucket is configured.
func NewS3Archiver(ctx context.Context, cfg config.ExportConfig) (*S3Archiver, error) {
	if cfg.S3Bucket == "" {
		return nil, ErrDisabled
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return &S3Archiver{client: client, bucket: cfg.S3Bucket}, nil
}

// Put uploads body to key.
func (a *S3Archiver) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (a *S3Archiver) Bucket() string { return a.bucket }

// MemoryArchiver keeps uploads in memory. Used in tests and local runs.
type MemoryArchiver struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryArchiver returns an empty in-memory archive.
func NewMemoryArchiver() *MemoryArchiver {
	return &MemoryArchiver{objects: make(map[string][]byte)}
}

// Put stores a copy of body.
func (a *MemoryArchiver) Put(ctx context.Context, key, _ string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), body...)
	return nil
}

// Get returns the stored object.
func (a *MemoryArchiver) Get(key string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	body, ok := a.objects[key]
	return body, ok
}

// Keys lists stored keys in order.
func (a *MemoryArchiver) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.objects))
	for k := range a.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
