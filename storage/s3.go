package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Store keeps assets in an S3 bucket.
type S3Store struct {
	s3     *s3.S3
	bucket string
}

func NewS3Store(region, bucket string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return &S3Store{s3: s3.New(sess), bucket: bucket}, nil
}

func (c *S3Store) baseURL() string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/", c.bucket)
}

func (c *S3Store) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	img, err := OpenImage(file)
	if err != nil {
		return "", err
	}
	defer img.Body.Close()

	key := objectKey(folder, img.Extension)
	_, err = c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          img.Body,
		ContentLength: aws.Int64(img.Size),
		ContentType:   aws.String(img.ContentType),
	})
	if err != nil {
		return "", err
	}
	return c.baseURL() + key, nil
}

func (c *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, c.baseURL())
	if !ok || key == "" {
		return ErrForeignRef
	}
	_, err := c.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}
