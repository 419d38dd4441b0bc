// Package blobstore provides the S3-backed object store used to re-host
// token logo images.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"wallet_balances/internal/app/port"
)

// S3Store implements port.BlobStore on top of an S3 bucket. Objects are
// publicly readable under publicBaseURL.
type S3Store struct {
	client        s3iface.S3API
	bucket        string
	publicBaseURL string
}

// NewS3Store builds an S3Store using the SDK default credential chain.
func NewS3Store(region, bucket, publicBaseURL string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3Store{
		client:        s3.New(sess),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// NewS3StoreWithClient builds an S3Store around an existing client.
func NewS3StoreWithClient(client s3iface.S3API, bucket, publicBaseURL string) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Head implements port.BlobStore. A missing object is (_, false, nil); only
// transport-level failures surface as errors.
func (s *S3Store) Head(ctx context.Context, path string) (string, bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return "", false, nil
			}
		}
		return "", false, fmt.Errorf("heading object %s: %w", path, err)
	}
	return s.objectURL(path), true, nil
}

// Put implements port.BlobStore.
func (s *S3Store) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(path),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("putting object %s: %w", path, err)
	}
	return s.objectURL(path), nil
}

// BaseURL implements port.BlobStore.
func (s *S3Store) BaseURL() string {
	return s.publicBaseURL
}

func (s *S3Store) objectURL(path string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(path, "/")
}

var _ port.BlobStore = (*S3Store)(nil)
