package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// DownloadObject reads a full GCS object into memory. Paper PDFs are small
// enough that streaming to a temp file is not worth the bookkeeping.
func DownloadObject(ctx context.Context, bucket *storage.BucketHandle, objectName string) ([]byte, error) {
	reader, err := bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", objectName, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", objectName, err)
	}
	return data, nil
}

// SignedUploadURL returns a V4 signed PUT URL for the given object. The
// content type is pinned so a client cannot upload under a different one.
func SignedUploadURL(bucket *storage.BucketHandle, objectName, contentType string, ttl time.Duration) (string, time.Time, error) {
	expires := time.Now().Add(ttl)
	url, err := bucket.SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		Expires:     expires,
		ContentType: contentType,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create signed URL for %s: %w", objectName, err)
	}
	return url, expires, nil
}
