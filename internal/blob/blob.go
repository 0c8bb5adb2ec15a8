// Package blob stores receipt images and returns where they can be fetched.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Store puts and fetches opaque objects by key.
type Store interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Get returns the bytes stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Open returns the store for backend: "s3" uses s3cfg, anything else the
// local directory dir.
func Open(ctx context.Context, backend, dir string, s3cfg S3Config) (Store, error) {
	if backend == "s3" {
		return NewS3Store(ctx, s3cfg)
	}
	return NewLocalStore(dir)
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/tiff": "tiff",
	"image/bmp":  "bmp",
}

// ExtensionFor returns the file extension for an image content type.
// ok is false for anything that is not an image.
func ExtensionFor(contentType string) (ext string, ok bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", false
	}
	if ext, ok := imageExtensions[ct]; ok {
		return ext, true
	}
	return strings.TrimPrefix(ct, "image/"), true
}

// ReceiptKey builds the object key for a receipt uploaded at t.
func ReceiptKey(userID, billID, ext string, t time.Time) string {
	return path.Join("receipts", userID, fmt.Sprintf("%s-%d.%s", billID, t.UnixMilli(), ext))
}

// KeyFromURL recovers the key from a URL returned by Put, given the base
// URL the store was configured with.
func KeyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
