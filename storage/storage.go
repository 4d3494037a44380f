// Package storage holds the image asset stores. An asset is addressed by the
// public URL returned from Upload; the same URL is handed back to Delete.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/cppla/socialbbs/config"
)

// MaxImageSize bounds a single upload.
const MaxImageSize = 5 << 20

var (
	// ErrNotImage is returned when an upload is not an image.
	ErrNotImage = errors.New("upload is not an image")
	// ErrTooLarge is returned when an upload exceeds MaxImageSize.
	ErrTooLarge = errors.New("upload exceeds the image size limit")
	// ErrForeignRef is returned by Delete for a reference the store did not issue.
	ErrForeignRef = errors.New("asset reference does not belong to this store")
)

// AssetStore accepts image uploads and removes them again by reference.
type AssetStore interface {
	Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Image is an opened, sniffed upload ready to be written to a store.
type Image struct {
	Body        multipart.File
	Size        int64
	ContentType string
	Extension   string
}

// OpenImage opens the upload, checks its size and sniffs the content.
// The caller closes Body.
func OpenImage(file *multipart.FileHeader) (*Image, error) {
	if file == nil {
		return nil, ErrNotImage
	}
	if file.Size > MaxImageSize {
		return nil, ErrTooLarge
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	mt, err := DetectImage(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Image{Body: f, Size: file.Size, ContentType: mt.String(), Extension: mt.Extension()}, nil
}

// DetectImage sniffs r and fails with ErrNotImage unless it holds an image.
func DetectImage(r io.Reader) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, ErrNotImage
	}
	return mt, nil
}

// objectKey names a stored object; the original file name is never trusted.
func objectKey(folder, ext string) string {
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

// New builds the store selected by configuration.
func New(c config.AppConfig) (AssetStore, error) {
	switch strings.ToLower(c.StorageDriver) {
	case "local", "":
		return NewLocalStore(c.StorageLocalDir, c.StoragePublicURL)
	case "s3":
		return NewS3Store(c.S3Region, c.S3Bucket)
	case "gcs":
		return NewGCSStore(c.GCSProjectID, c.GCSBucket, c.GCSCredentials)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
}
