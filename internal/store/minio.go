package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/keyhaven/backend/internal/property"
)

// uploadTimeout is the hard ceiling for a single image batch; exceeding it
// aborts the upload and the enclosing transaction.
const uploadTimeout = 60 * time.Second

const imagePrefix = "properties/"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MinioStore wraps a MinIO client for listing-image storage. Uploaded
// objects are addressed by the stable public URL stored on the listing.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to the object store and makes sure the bucket
// exists. publicURL overrides the derived endpoint URL when the store sits
// behind a CDN or reverse proxy; pass "" to derive it.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &MinioStore{client: client, bucket: bucket, baseURL: strings.TrimRight(publicURL, "/")}, nil
}

// UploadBatch stores every image under a fresh object key and returns their
// public URLs in input order. The whole batch shares one timeout; a failure
// part-way through leaves earlier objects behind for the caller to treat as
// a failed batch.
func (s *MinioStore) UploadBatch(ctx context.Context, files []property.UploadFile) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := imagePrefix + uuid.New().String() + imageExtensions[strings.ToLower(f.ContentType)]
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(f.Data), int64(len(f.Data)), minio.PutObjectOptions{
			ContentType: f.ContentType,
		})
		if err != nil {
			return urls, fmt.Errorf("minio put %s: %w", key, err)
		}
		urls = append(urls, s.objectURL(key))
	}
	return urls, nil
}

// Remove deletes the object behind a URL previously returned by UploadBatch.
func (s *MinioStore) Remove(ctx context.Context, url string) error {
	key, err := s.objectKey(url)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key)
}

func (s *MinioStore) objectKey(url string) (string, error) {
	marker := "/" + s.bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", fmt.Errorf("minio: cannot extract object key from %q", url)
	}
	return url[idx+len(marker):], nil
}
