package runlocker

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// leaseTokenBytes is the lease token size: 20 bytes from a cryptographically
// secure source.
const leaseTokenBytes = 20

// newLeaseToken returns a fresh, hex-encoded lease token. The exact
// encoding is free so long as the same bytes are written, read, and
// compared on every operation — hex keeps it safe to embed directly as a
// Redis string value and in log lines.
func newLeaseToken() (string, error) {
	buf := make([]byte, leaseTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("runlocker: failed to generate lease token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
