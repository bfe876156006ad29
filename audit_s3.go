package runlocker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3AuditSink writes one object per event to an S3 (or S3-compatible)
// bucket, keyed by lock name and a UUIDv7 record ID so a bucket listing
// sorts in write order.
type S3AuditSink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3AuditSink wraps an existing S3 client. Use LoadDefaultAWSS3Client to
// build one from the standard AWS credential chain, or construct a MinIO
// client directly via NewMinIOAuditSink.
func NewS3AuditSink(client *s3.Client, bucket, prefix string) *S3AuditSink {
	return &S3AuditSink{client: client, bucket: bucket, prefix: prefix}
}

// MinIOConfig describes an S3-compatible MinIO endpoint.
type MinIOConfig struct {
	Endpoint        string // e.g. "localhost:9000"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
}

// NewMinIOAuditSink creates an S3AuditSink pointed at a MinIO (or any
// S3-compatible) endpoint using path-style addressing.
func NewMinIOAuditSink(cfg MinIOConfig, prefix string) *S3AuditSink {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       "us-east-1", // MinIO ignores regions but the SDK requires one
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	})

	return NewS3AuditSink(client, cfg.Bucket, prefix)
}

// LoadDefaultAWSS3Client builds an s3.Client from the standard AWS SDK
// credential chain (environment, shared config, IAM role).
func LoadDefaultAWSS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("runlocker: load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (s *S3AuditSink) Record(ctx context.Context, event AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("runlocker: marshal audit event: %w", err)
	}

	key := s.objectKey(event)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("runlocker: put audit object %q: %w", key, err)
	}
	return nil
}

func (s *S3AuditSink) objectKey(event AuditEvent) string {
	id := NewID()
	if s.prefix == "" {
		return fmt.Sprintf("%s/%s.json", event.LockName, id)
	}
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, event.LockName, id)
}

func (s *S3AuditSink) Close() error { return nil }
