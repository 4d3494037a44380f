package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps assets in a Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	projectID  string
	bucketName string
}

func NewGCSStore(projectID, bucketName, credentialsFile string) (*GCSStore, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs bucket is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: client, projectID: projectID, bucketName: bucketName}, nil
}

func (c *GCSStore) baseURL() string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/", c.bucketName)
}

func (c *GCSStore) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	img, err := OpenImage(file)
	if err != nil {
		return "", err
	}
	defer img.Body.Close()

	key := objectKey(folder, img.Extension)
	writer := c.client.Bucket(c.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = img.ContentType
	if _, err := io.Copy(writer, img.Body); err != nil {
		_ = writer.Close()
		return "", err
	}
	// the object is committed on Close
	if err := writer.Close(); err != nil {
		return "", err
	}
	return c.baseURL() + key, nil
}

func (c *GCSStore) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, c.baseURL())
	if !ok || key == "" {
		return ErrForeignRef
	}
	err := c.client.Bucket(c.bucketName).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
