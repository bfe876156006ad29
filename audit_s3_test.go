package runlocker

import (
	"strings"
	"testing"
)

func TestS3AuditSink_ObjectKey_WithoutPrefix(t *testing.T) {
	s := NewS3AuditSink(nil, "bucket", "")
	key := s.objectKey(AuditEvent{LockName: "orders"})

	if !strings.HasPrefix(key, "orders/") {
		t.Errorf("key = %q, want prefix orders/", key)
	}
	if !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q, want .json suffix", key)
	}
}

func TestS3AuditSink_ObjectKey_WithPrefix(t *testing.T) {
	s := NewS3AuditSink(nil, "bucket", "audit")
	key := s.objectKey(AuditEvent{LockName: "orders"})

	if !strings.HasPrefix(key, "audit/orders/") {
		t.Errorf("key = %q, want prefix audit/orders/", key)
	}
}

func TestS3AuditSink_ObjectKey_UniquePerCall(t *testing.T) {
	s := NewS3AuditSink(nil, "bucket", "")
	a := s.objectKey(AuditEvent{LockName: "orders"})
	b := s.objectKey(AuditEvent{LockName: "orders"})
	if a == b {
		t.Error("expected distinct keys for successive events")
	}
}

func TestNewMinIOAuditSink_BuildsClient(t *testing.T) {
	s := NewMinIOAuditSink(MinIOConfig{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UseSSL:          false,
		Bucket:          "audit-bucket",
	}, "events")

	if s.bucket != "audit-bucket" {
		t.Errorf("bucket = %q, want audit-bucket", s.bucket)
	}
	if s.client == nil {
		t.Error("expected a non-nil S3 client")
	}
}
