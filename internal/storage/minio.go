package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"drivebox/internal/config"
)

// minioStore implements BlobStore on an S3-compatible backend (MinIO, AWS
// S3, etc.). Chunking is delegated to the backend's own multipart handling;
// the interface contract (ranged lazy reads, idempotent delete, head reads)
// is the same as the Postgres store. Safe for concurrent use.
type minioStore struct {
	client *minio.Client
	bucket string
}

var _ BlobStore = (*minioStore)(nil)

// NewMinIO creates an S3-backed blob store.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStore{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// Put uploads the payload using streaming I/O only (no local disk).
func (m *minioStore) Put(ctx context.Context, r io.Reader, opt PutBlobOptions) (string, BlobInfo, error) {
	if r == nil {
		return "", BlobInfo{}, errors.New("nil reader")
	}
	id := uuid.NewString()
	src := newProgressReader(r, opt.Size, opt.Progress)

	size := opt.Size
	if size == 0 {
		size = -1
	}
	res, err := m.client.PutObject(ctx, m.bucket, id, src, size, minio.PutObjectOptions{
		ContentType: opt.ContentType,
		UserMetadata: map[string]string{
			"filename": opt.Filename,
		},
	})
	if err != nil {
		return "", BlobInfo{}, fmt.Errorf("put object: %w", err)
	}
	return id, BlobInfo{
		ID:          id,
		Filename:    opt.Filename,
		ContentType: opt.ContentType,
		Size:        res.Size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// PutBuffer stores an in-memory payload.
func (m *minioStore) PutBuffer(ctx context.Context, buf []byte, filename, contentType string) (string, BlobInfo, error) {
	return m.Put(ctx, bytes.NewReader(buf), PutBlobOptions{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(buf)),
	})
}

// Open returns a streaming reader over [off, end) via an S3 range request.
func (m *minioStore) Open(ctx context.Context, id string, off, end int64) (io.ReadCloser, BlobInfo, error) {
	info, err := m.Stat(ctx, id)
	if err != nil {
		return nil, BlobInfo{}, err
	}
	if off < 0 {
		off = 0
	}
	if end < 0 || end > info.Size {
		end = info.Size
	}
	if off > end || (off >= info.Size && info.Size > 0) {
		return nil, BlobInfo{}, ErrInvalidRange
	}
	if off == end {
		return io.NopCloser(bytes.NewReader(nil)), info, nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end-1); err != nil {
		return nil, BlobInfo{}, ErrInvalidRange
	}
	obj, err := m.client.GetObject(ctx, m.bucket, id, opts)
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("get object: %w", err)
	}
	return obj, info, nil
}

// Head reads at most maxBytes from the start of the object.
func (m *minioStore) Head(ctx context.Context, id string, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	info, err := m.Stat(ctx, id)
	if err != nil {
		return nil, err
	}
	if info.Size == 0 {
		return nil, nil
	}
	r, _, err := m.Open(ctx, id, 0, min64(int64(maxBytes), info.Size))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Stat returns object metadata only.
func (m *minioStore) Stat(ctx context.Context, id string) (BlobInfo, error) {
	st, err := m.client.StatObject(ctx, m.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return BlobInfo{}, ErrBlobNotFound
		}
		return BlobInfo{}, fmt.Errorf("stat object: %w", err)
	}
	return BlobInfo{
		ID:          id,
		Filename:    st.UserMetadata["Filename"],
		ContentType: st.ContentType,
		Size:        st.Size,
		UploadedAt:  st.LastModified,
	}, nil
}

// Delete removes the object. S3 deletes of unknown keys already succeed, so
// the idempotence contract holds without extra checks.
func (m *minioStore) Delete(ctx context.Context, id string) error {
	return m.client.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{})
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == 404
	}
	return false
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
