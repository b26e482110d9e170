// Package storage provides the blob-backed manifest store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"qs-governance/internal/domain"
)

// S3API is the subset of the S3 client the store uses; *s3.Client
// satisfies it.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ManifestStore implements domain.ManifestStore over an S3 bucket.
// Manifest documents are addressed by object key.
type S3ManifestStore struct {
	client S3API
	bucket string
}

var _ domain.ManifestStore = (*S3ManifestStore)(nil)

// NewS3ManifestStore creates a store over the given bucket.
func NewS3ManifestStore(client S3API, bucket string) *S3ManifestStore {
	return &S3ManifestStore{client: client, bucket: bucket}
}

// Get fetches an object. A missing key maps to a domain NotFoundError so
// callers can degrade to an empty manifest.
func (s *S3ManifestStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrNotFound("s3://%s/%s not found", s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Put uploads a manifest document.
func (s *S3ManifestStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
