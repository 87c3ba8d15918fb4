package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drivebox/internal/http/middleware"
	"drivebox/internal/model"
	"drivebox/internal/service"
	serviceMocks "drivebox/internal/service/mocks"
)

// newApp builds a Fiber app with identity resolution, matching production
// middleware order.
func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})
	app.Use(middleware.Identity())
	return app
}

func asOwner(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Email", "owner@example.com")
	return req
}

var ownerIdentity = &service.Identity{UserID: "user-1", Email: "owner@example.com"}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newApp()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newApp()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Post("/api/upload", UploadFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, contentType := multipartFile(t, "test.txt", "hello world")

		expected := &model.File{ID: "file-1", Name: "test.txt"}
		mockSvc.On("Upload", mock.Anything, ownerIdentity, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Filename == "test.txt" && in.Size == 11
		})).Return(expected, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodPost, "/api/upload", body))
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.File
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "file-1", result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("identity from form fields", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "a.txt")
		part.Write([]byte("x"))
		writer.WriteField("ownerId", "user-9")
		writer.WriteField("accountId", "acct-9")
		writer.WriteField("path", "/dashboard/files")
		writer.Close()

		mockSvc.On("Upload", mock.Anything, &service.Identity{UserID: "user-9"}, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.AccountID == "acct-9" && in.Path == "/dashboard/files"
		})).Return(&model.File{ID: "file-2"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := asOwner(httptest.NewRequest(http.MethodPost, "/api/upload", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("too large", func(t *testing.T) {
		body, contentType := multipartFile(t, "big.bin", "xxxxx")

		mockSvc.On("Upload", mock.Anything, ownerIdentity, mock.Anything).
			Return(nil, service.ErrFileTooLarge).Once()

		req := asOwner(httptest.NewRequest(http.MethodPost, "/api/upload", body))
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_TOO_LARGE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		body, contentType := multipartFile(t, "a.txt", "x")

		mockSvc.On("Upload", mock.Anything, (*service.Identity)(nil), mock.Anything).
			Return(nil, service.ErrUnauthorized).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadFile(t *testing.T) {
	file := &model.File{ID: "file-1", Name: "song.mp3", ContentType: "audio/mpeg", Size: 10}

	t.Run("full stream", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		mockSvc.On("Download", mock.Anything, ownerIdentity, "file-1", int64(0), int64(-1)).
			Return(&service.DownloadInfo{
				File:    file,
				Content: io.NopCloser(strings.NewReader("0123456789")),
				Offset:  0,
				Length:  10,
			}, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
		assert.Equal(t, "public, max-age=31536000, immutable", resp.Header.Get("Cache-Control"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), `song.mp3`)

		data, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "0123456789", string(data))
		mockSvc.AssertExpectations(t)
	})

	t.Run("byte range", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		mockSvc.On("Download", mock.Anything, ownerIdentity, "file-1", int64(2), int64(6)).
			Return(&service.DownloadInfo{
				File:    file,
				Content: io.NopCloser(strings.NewReader("2345")),
				Offset:  2,
				Length:  4,
			}, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		req.Header.Set("Range", "bytes=2-5")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 2-5/10", resp.Header.Get("Content-Range"))

		data, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "2345", string(data))
		mockSvc.AssertExpectations(t)
	})

	t.Run("suffix range resolves against catalog size", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		mockSvc.On("Get", mock.Anything, ownerIdentity, "file-1").Return(file, nil).Once()
		mockSvc.On("Download", mock.Anything, ownerIdentity, "file-1", int64(6), int64(-1)).
			Return(&service.DownloadInfo{
				File:    file,
				Content: io.NopCloser(strings.NewReader("6789")),
				Offset:  6,
				Length:  4,
			}, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		req.Header.Set("Range", "bytes=-4")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 6-9/10", resp.Header.Get("Content-Range"))
		mockSvc.AssertExpectations(t)
	})

	t.Run("last modified tracks the blob upload", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		uploaded := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		edited := *file
		edited.UpdatedAt = time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC)
		mockSvc.On("Download", mock.Anything, ownerIdentity, "file-1", int64(0), int64(-1)).
			Return(&service.DownloadInfo{
				File:       &edited,
				Content:    io.NopCloser(strings.NewReader("0123456789")),
				Offset:     0,
				Length:     10,
				UploadedAt: uploaded,
			}, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		// Tag enrichment and renames bump UpdatedAt without touching the
		// bytes, so the header must come from the blob's upload time.
		assert.Equal(t, uploaded.Format(time.RFC1123), resp.Header.Get("Last-Modified"))
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed range", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		req.Header.Set("Range", "bytes=abc")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		mockSvc.On("Download", mock.Anything, mock.Anything, "missing", int64(0), int64(-1)).
			Return(nil, service.ErrNotFound).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/missing", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("forbidden", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newApp()
		app.Get("/api/files/:id", DownloadFile(mockSvc))

		mockSvc.On("Download", mock.Anything, mock.Anything, "file-1", int64(0), int64(-1)).
			Return(nil, service.ErrForbidden).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files/file-1", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header      string
		wantOff     int64
		wantEnd     int64
		wantPartial bool
		wantErr     bool
	}{
		{"", 0, -1, false, false},
		{"bytes=0-99", 0, 100, true, false},
		{"bytes=10-", 10, -1, true, false},
		{"bytes=-500", -500, -1, true, false},
		{"bytes=5-2", 0, 0, false, true},
		{"bytes=a-b", 0, 0, false, true},
		{"bytes=0-5,10-15", 0, 0, false, true},
		{"items=0-5", 0, 0, false, true},
	}
	for _, tt := range tests {
		off, end, partial, err := parseRange(tt.header)
		if tt.wantErr {
			assert.Error(t, err, "header %q", tt.header)
			continue
		}
		assert.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.wantOff, off, "header %q", tt.header)
		assert.Equal(t, tt.wantEnd, end, "header %q", tt.header)
		assert.Equal(t, tt.wantPartial, partial, "header %q", tt.header)
	}
}

func TestListFiles(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Get("/api/files", ListFiles(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.FileListResult{
			Items: []model.File{{ID: "file-1", Name: "a.png"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, ownerIdentity, service.ListInput{
			Types:  []string{"image", "video"},
			Search: "cat",
			Sort:   "size-desc",
			Limit:  5,
		}).Return(expected, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files?types=image,video&search=cat&sort=size-desc&limit=5", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.FileListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/files?limit=abc", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, (*service.Identity)(nil), mock.Anything).
			Return(nil, service.ErrUnauthorized).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRenameFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Patch("/api/files/:id/rename", RenameFile(mockSvc))

	t.Run("success joins name and extension", func(t *testing.T) {
		expected := &model.File{ID: "file-1", Name: "renamed.txt"}
		mockSvc.On("Rename", mock.Anything, ownerIdentity, "file-1", "renamed.txt").
			Return(expected, nil).Once()

		body := strings.NewReader(`{"name":"renamed","extension":"txt"}`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/file-1/rename", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("extension already present", func(t *testing.T) {
		mockSvc.On("Rename", mock.Anything, ownerIdentity, "file-1", "notes.TXT").
			Return(&model.File{ID: "file-1", Name: "notes.TXT"}, nil).Once()

		body := strings.NewReader(`{"name":"notes.TXT","extension":"txt"}`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/file-1/rename", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		body := strings.NewReader(`{not json`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/file-1/rename", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("forbidden", func(t *testing.T) {
		mockSvc.On("Rename", mock.Anything, ownerIdentity, "file-1", "x.txt").
			Return(nil, service.ErrForbidden).Once()

		body := strings.NewReader(`{"name":"x.txt"}`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/file-1/rename", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestShareFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Patch("/api/files/:id/share", ShareFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.File{ID: "file-1", SharedWith: []string{"a@example.com"}}
		mockSvc.On("Share", mock.Anything, ownerIdentity, "file-1", []string{"a@example.com"}).
			Return(expected, nil).Once()

		body := strings.NewReader(`{"emails":["a@example.com"]}`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/file-1/share", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.File
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, []string{"a@example.com"}, result.SharedWith)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Share", mock.Anything, ownerIdentity, "missing", []string(nil)).
			Return(nil, service.ErrNotFound).Once()

		body := strings.NewReader(`{}`)
		req := asOwner(httptest.NewRequest(http.MethodPatch, "/api/files/missing/share", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Delete("/api/files/:id", DeleteFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, ownerIdentity, "file-1").Return(nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodDelete, "/api/files/file-1", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, ownerIdentity, "missing").Return(service.ErrNotFound).Once()

		req := asOwner(httptest.NewRequest(http.MethodDelete, "/api/files/missing", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, ownerIdentity, "file-1").Return(errors.New("boom")).Once()

		req := asOwner(httptest.NewRequest(http.MethodDelete, "/api/files/file-1", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUsage(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := newApp()
	app.Get("/api/usage", Usage(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Usage", mock.Anything, ownerIdentity).Return(&service.UsageReport{
			UsedBytes:  500,
			QuotaBytes: 1000,
			ByType:     map[string]service.TypeUsage{"image": {TotalBytes: 500}},
		}, nil).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/usage", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.UsageReport
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, int64(500), result.UsedBytes)
		assert.Equal(t, int64(1000), result.QuotaBytes)
		mockSvc.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		mockSvc.On("Usage", mock.Anything, (*service.Identity)(nil)).
			Return(nil, service.ErrUnauthorized).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSearchUsers(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := newApp()
	app.Get("/api/users/search", SearchUsers(mockSvc))

	t.Run("matches", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, ownerIdentity, "friend").
			Return([]service.UserSummary{{ID: "user-2", Email: "friend@example.com", FullName: "Friend"}}).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/users/search?q=friend", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []service.UserSummary
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("always answers with a list", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, ownerIdentity, "").
			Return([]service.UserSummary{}).Once()

		req := asOwner(httptest.NewRequest(http.MethodGet, "/api/users/search", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []service.UserSummary
		json.NewDecoder(resp.Body).Decode(&result)
		assert.NotNil(t, result)
		assert.Empty(t, result)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := newApp()

	mockFileSvc := new(serviceMocks.MockFileService)
	mockUserSvc := new(serviceMocks.MockUserService)
	RegisterRoutes(app, nil, mockFileSvc, mockUserSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
