package runlocker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSAuditSink writes one object per event to a Google Cloud Storage
// bucket, keyed the same way as S3AuditSink.
type GCSAuditSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSAuditConfig configures a GCSAuditSink.
type GCSAuditConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string // optional; uses Application Default Credentials if empty
}

// NewGCSAuditSink creates a GCS-backed sink.
func NewGCSAuditSink(ctx context.Context, cfg GCSAuditConfig) (*GCSAuditSink, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("runlocker: create GCS client: %w", err)
	}

	return &GCSAuditSink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (g *GCSAuditSink) Record(ctx context.Context, event AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("runlocker: marshal audit event: %w", err)
	}

	obj := g.client.Bucket(g.bucket).Object(g.objectKey(event))
	writer := obj.NewWriter(ctx)

	if _, err := writer.Write(body); err != nil {
		_ = writer.Close()
		return fmt.Errorf("runlocker: write GCS audit object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("runlocker: close GCS audit object: %w", err)
	}
	return nil
}

func (g *GCSAuditSink) objectKey(event AuditEvent) string {
	id := NewID()
	if g.prefix == "" {
		return fmt.Sprintf("%s/%s.json", event.LockName, id)
	}
	return fmt.Sprintf("%s/%s/%s.json", g.prefix, event.LockName, id)
}

func (g *GCSAuditSink) Close() error {
	return g.client.Close()
}
