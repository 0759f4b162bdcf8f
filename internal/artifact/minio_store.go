// Package artifact provides durable storage for the uploaded document
// bytes, surviving process restarts.
package artifact

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/crypto/blake2b"
)

// objectKey is the fixed key the single session artifact lives under.
const objectKey = "current/document.pdf"

// checksumMeta is the object metadata key holding the content digest.
// The digest is verified on read; a mismatch means the persisted
// artifact is unusable and the session degrades to report-only.
const checksumMeta = "Checksum"

// MinioStore keeps the artifact as a single object in a MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put overwrites the stored artifact. Failures are non-fatal to the
// session: the caller proceeds with the report and loses only the
// ability to rehydrate the document on the next start.
func (s *MinioStore) Put(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/pdf",
		UserMetadata: map[string]string{checksumMeta: digest(data)},
	})
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}

// Get returns the stored artifact bytes. The second return is false
// when no artifact is stored; simple absence is never an error. A
// checksum mismatch is returned as an error for the caller to absorb
// as absence.
func (s *MinioStore) Get(ctx context.Context) ([]byte, bool, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat artifact: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("fetch artifact: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, false, fmt.Errorf("read artifact: %w", err)
	}

	if want := stat.UserMetadata[checksumMeta]; want != "" && want != digest(data) {
		return nil, false, fmt.Errorf("artifact checksum mismatch")
	}
	return data, true, nil
}

// Clear removes the stored artifact. Idempotent: removing an absent
// object succeeds.
func (s *MinioStore) Clear(ctx context.Context) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("clear artifact: %w", err)
	}
	return nil
}

// Ping checks if the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("ping object store: %w", err)
	}
	return nil
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
