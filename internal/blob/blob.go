// Package blob wraps the hosted blob store used for pet and profile images.
// The backend only needs two capabilities: upload bytes under a path and
// hand back a public URL.
package blob

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// Uploader stores a blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
}

// GCSUploader uploads into the app's default storage bucket.
type GCSUploader struct {
	bucket *storage.BucketHandle
	name   string
}

// NewGCSUploader resolves the default bucket from an initialized Firebase
// app.
func NewGCSUploader(ctx context.Context, app *firebase.App, bucketName string) (*GCSUploader, error) {
	sc, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("blob: storage client: %w", err)
	}
	var bucket *storage.BucketHandle
	if bucketName != "" {
		bucket, err = sc.Bucket(bucketName)
	} else {
		bucket, err = sc.DefaultBucket()
	}
	if err != nil {
		return nil, fmt.Errorf("blob: bucket: %w", err)
	}
	name := bucketName
	if name == "" {
		// The default bucket comes from the app config; ask the backend for
		// its actual name so public URLs are well formed.
		attrs, err := bucket.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("blob: resolve bucket name: %w", err)
		}
		name = attrs.Name
	}
	return &GCSUploader{bucket: bucket, name: name}, nil
}

// Upload implements Uploader. Failures are returned to the caller unretried;
// image uploads are user-initiated and simply re-run on demand.
func (u *GCSUploader) Upload(ctx context.Context, data []byte, path, contentType string) (string, error) {
	w := u.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return publicURL(u.name, path), nil
}

// publicURL builds the unauthenticated download URL for an object. The bucket
// name must be non-empty; NewGCSUploader guarantees that.
func publicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
