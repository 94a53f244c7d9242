package storage

import (
	"context"
	"strings"
	"time"
)

// Config holds object storage configuration
type Config struct {
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	URLExpiry   time.Duration
}

// ImageSigner turns a stored object key into a URL the browser can load.
type ImageSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// IsAbsoluteURL reports whether ref already is a loadable URL (no signing needed).
func IsAbsoluteURL(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:")
}

// ObjectKey normalizes an image reference into a bucket key.
func ObjectKey(ref string) string {
	return strings.TrimLeft(strings.TrimSpace(ref), "/")
}
