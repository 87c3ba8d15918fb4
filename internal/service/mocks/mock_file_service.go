package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"drivebox/internal/model"
	"drivebox/internal/service"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, id *service.Identity, in service.UploadInput) (*model.File, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, id *service.Identity, fileID string) (*model.File, error) {
	args := m.Called(ctx, id, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, id *service.Identity, fileID string, off, end int64) (*service.DownloadInfo, error) {
	args := m.Called(ctx, id, fileID, off, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadInfo), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, id *service.Identity, in service.ListInput) (*service.FileListResult, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Rename(ctx context.Context, id *service.Identity, fileID, name string) (*model.File, error) {
	args := m.Called(ctx, id, fileID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Share(ctx context.Context, id *service.Identity, fileID string, emails []string) (*model.File, error) {
	args := m.Called(ctx, id, fileID, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, id *service.Identity, fileID string) error {
	args := m.Called(ctx, id, fileID)
	return args.Error(0)
}

func (m *MockFileService) Usage(ctx context.Context, id *service.Identity) (*service.UsageReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UsageReport), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Search(ctx context.Context, id *service.Identity, q string) []service.UserSummary {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return []service.UserSummary{}
	}
	return args.Get(0).([]service.UserSummary)
}
