package mocks

import (
	"context"
	"io"

	"drivebox/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, r io.Reader, opt storage.PutBlobOptions) (string, storage.BlobInfo, error) {
	args := m.Called(ctx, r, opt)
	return args.String(0), args.Get(1).(storage.BlobInfo), args.Error(2)
}

func (m *MockBlobStore) PutBuffer(ctx context.Context, buf []byte, filename, contentType string) (string, storage.BlobInfo, error) {
	args := m.Called(ctx, buf, filename, contentType)
	return args.String(0), args.Get(1).(storage.BlobInfo), args.Error(2)
}

func (m *MockBlobStore) Open(ctx context.Context, id string, off, end int64) (io.ReadCloser, storage.BlobInfo, error) {
	args := m.Called(ctx, id, off, end)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.BlobInfo), args.Error(2)
}

func (m *MockBlobStore) Head(ctx context.Context, id string, maxBytes int) ([]byte, error) {
	args := m.Called(ctx, id, maxBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStore) Stat(ctx context.Context, id string) (storage.BlobInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(storage.BlobInfo), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
