// Package storage is the object store adapter. Blobs are keyed
// "{post_id}/{path}" so the key prefix partitions writes by post.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"

	"github.com/mirari/uploader/internal/config"
)

const putRetries = 3

// ObjectStore is the interface the pipeline and coordinator write through.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// S3Store talks to any S3-compatible endpoint.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store constructs an S3-compatible client from config.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" || cfg.S3BucketName == "" {
		return nil, fmt.Errorf("missing object store configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.S3BucketName}, nil
}

// Put uploads bytes under the key, retrying transient failures.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	op := func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(100*time.Millisecond)), putRetries-1)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		log.Printf("[ObjectStore] Put FAILED: key=%s err=%v", key, err)
		return fmt.Errorf("put object: %w", err)
	}

	log.Printf("[ObjectStore] Put OK: key=%s bytes=%d", key, len(body))
	return nil
}

// Delete removes an object by key. A missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Printf("[ObjectStore] Delete FAILED: key=%s err=%v", key, err)
		return fmt.Errorf("delete object: %w", err)
	}

	log.Printf("[ObjectStore] Delete OK: key=%s", key)
	return nil
}
