package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"drivebox/internal/model"
	"drivebox/internal/repository"
	"drivebox/internal/storage"
	"drivebox/internal/tagging"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("file not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrForbidden    = errors.New("access denied")
	ErrUnauthorized = errors.New("authentication required")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
	ErrNameRequired = errors.New("name is required")
)

const (
	defaultUploadLimit = 50 * 1024 * 1024
	listingCacheTTL    = 30 * time.Second
	previewHeadBytes   = 8 * 1024
	inlineImageLimit   = 4 * 1024 * 1024
)

// UploadInput describes one incoming upload. Size is the declared length in
// bytes, or -1 when unknown; the service enforces the limit on observed bytes
// either way.
type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	AccountID   string // defaults to the caller's user id
	Path        string // client location hint for cache invalidation
	IsPublic    bool
	SharedWith  []string
	Progress    storage.ProgressFunc
}

// DownloadInfo bundles a file's catalog record with a lazy reader over the
// requested byte range. The caller owns Content and must close it.
type DownloadInfo struct {
	File       *model.File
	Content    io.ReadCloser
	Offset     int64
	Length     int64 // bytes served, not total blob size
	UploadedAt time.Time
}

// ListInput holds the caller-controlled listing options. Sort accepts a
// field name with an optional leading "-" for descending order.
type ListInput struct {
	Types  []string
	Search string
	Sort   string
	Limit  int
}

// FileListResult is the service-level DTO for file listings.
type FileListResult struct {
	Items []model.File `json:"documents"`
	Total int          `json:"total"`
}

// TypeUsage is the per-category slice of a usage report.
type TypeUsage struct {
	TotalBytes int64     `json:"total_bytes"`
	LatestAt   time.Time `json:"latest_at"`
}

// UsageReport summarizes a user's storage consumption against their quota.
type UsageReport struct {
	UsedBytes  int64                `json:"used_bytes"`
	QuotaBytes int64                `json:"quota_bytes"`
	ByType     map[string]TypeUsage `json:"by_type"`
}

// FileService defines the use cases for handling user files.
type FileService interface {
	// Upload streams the content into the blob store, records catalog
	// metadata, and rolls the blob back if the catalog write fails. Tag
	// enrichment runs in the background after a successful upload.
	Upload(ctx context.Context, id *Identity, in UploadInput) (*model.File, error)

	// Get returns a single file's metadata, subject to the read gate.
	Get(ctx context.Context, id *Identity, fileID string) (*model.File, error)

	// Download opens the file's content for the byte range [off, end).
	// end < 0 means end-of-file.
	Download(ctx context.Context, id *Identity, fileID string, off, end int64) (*DownloadInfo, error)

	// List returns files owned by or shared with the caller.
	List(ctx context.Context, id *Identity, in ListInput) (*FileListResult, error)

	// Rename changes the display name. Owner only.
	Rename(ctx context.Context, id *Identity, fileID, name string) (*model.File, error)

	// Share replaces the share list with the given emails. Owner only.
	Share(ctx context.Context, id *Identity, fileID string, emails []string) (*model.File, error)

	// Delete removes the catalog record and then the blob. Owner only.
	Delete(ctx context.Context, id *Identity, fileID string) error

	// Usage reports per-type storage consumption against the quota.
	Usage(ctx context.Context, id *Identity) (*UsageReport, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store      storage.BlobStore
	repo       repository.FileRepository
	tagger     tagging.Generator
	maxBytes   int64
	quotaBytes int64
	cache      *listingCache

	// spawn runs the enrichment step; tests replace it to run inline.
	spawn func(fn func())
}

// NewFileService constructs a FileService. tagger may be nil to disable
// enrichment. maxBytes <= 0 falls back to the 50 MiB default.
func NewFileService(store storage.BlobStore, repo repository.FileRepository, tagger tagging.Generator, maxBytes, quotaBytes int64) FileService {
	if maxBytes <= 0 {
		maxBytes = defaultUploadLimit
	}
	return &fileService{
		store:      store,
		repo:       repo,
		tagger:     tagger,
		maxBytes:   maxBytes,
		quotaBytes: quotaBytes,
		cache:      newListingCache(listingCacheTTL),
		spawn:      func(fn func()) { go fn() },
	}
}

func (s *fileService) Upload(ctx context.Context, id *Identity, in UploadInput) (*model.File, error) {
	if id == nil || id.UserID == "" {
		return nil, ErrUnauthorized
	}
	if in.Reader == nil {
		return nil, ErrReaderNil
	}
	if in.Filename == "" {
		return nil, ErrNameRequired
	}
	if in.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	// The extra byte lets an undeclared oversized stream be detected after
	// the fact instead of trusting the client's length.
	limited := io.LimitReader(in.Reader, s.maxBytes+1)

	blobID, info, err := s.store.Put(ctx, limited, storage.PutBlobOptions{
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Size:        in.Size,
		Progress:    in.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	if info.Size > s.maxBytes {
		if delErr := s.store.Delete(ctx, blobID); delErr != nil {
			return nil, fmt.Errorf("%w; blob cleanup failed: %v", ErrFileTooLarge, delErr)
		}
		return nil, ErrFileTooLarge
	}

	fileType, ext := model.DetectFileType(in.Filename)
	fileID := uuid.New().String()
	accountID := in.AccountID
	if accountID == "" {
		accountID = id.UserID
	}
	now := time.Now().UTC()
	file := &model.File{
		ID:          fileID,
		Name:        in.Filename,
		ContentType: info.ContentType,
		Size:        info.Size,
		BlobID:      blobID,
		OwnerID:     id.UserID,
		AccountID:   accountID,
		SharedWith:  normalizeEmails(in.SharedWith),
		IsPublic:    in.IsPublic,
		Type:        fileType,
		Extension:   ext,
		Tags:        nil,
		URL:         "/api/files/" + fileID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.repo.Create(ctx, file)
	if err != nil {
		// Rollback: the blob must not outlive a failed catalog write.
		if delErr := s.store.Delete(ctx, blobID); delErr != nil {
			return nil, fmt.Errorf("catalog save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("catalog save failed: %w", err)
	}

	// Invalidation is keyed by owner, which subsumes the client's Path hint:
	// every listing the hint could name belongs to this owner's cache bucket.
	s.cache.invalidate(id.UserID)
	if s.tagger != nil {
		s.spawn(func() { s.enrich(stored) })
	}
	return stored, nil
}

// enrich asks the tagging model for labels and persists whatever comes back.
// It runs detached from the upload request, with its own deadline, and all
// failures are swallowed.
func (s *fileService) enrich(f *model.File) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	in := tagging.Input{
		Name:        f.Name,
		Type:        f.Type,
		Extension:   f.Extension,
		ContentType: f.ContentType,
		Size:        f.Size,
	}
	switch f.Type {
	case model.TypeDocument:
		if head, err := s.store.Head(ctx, f.BlobID, previewHeadBytes); err == nil && isMostlyText(head) {
			in.PreviewText = string(head)
		}
	case model.TypeImage:
		if f.Size > 0 && f.Size <= inlineImageLimit {
			if head, err := s.store.Head(ctx, f.BlobID, int(f.Size)); err == nil {
				in.ImageBase64 = base64.StdEncoding.EncodeToString(head)
			}
		}
	}

	tags, err := s.tagger.GenerateTags(ctx, in)
	if err != nil || len(tags) == 0 {
		return
	}
	if err := s.repo.SetTags(ctx, f.ID, tags); err != nil {
		return
	}
	s.cache.invalidate(f.OwnerID)
}

func (s *fileService) Get(ctx context.Context, id *Identity, fileID string) (*model.File, error) {
	file, err := s.find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !CanRead(file, id) {
		return nil, s.denied(id)
	}
	return file, nil
}

func (s *fileService) Download(ctx context.Context, id *Identity, fileID string, off, end int64) (*DownloadInfo, error) {
	file, err := s.Get(ctx, id, fileID)
	if err != nil {
		return nil, err
	}
	rc, info, err := s.store.Open(ctx, file.BlobID, off, end)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidRange) {
			return nil, storage.ErrInvalidRange
		}
		// A catalog row pointing at a missing blob must not leak store
		// internals to the caller.
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	served := info.Size - off
	if end >= 0 && end-off < served {
		served = end - off
	}
	return &DownloadInfo{File: file, Content: rc, Offset: off, Length: served, UploadedAt: info.UploadedAt}, nil
}

func (s *fileService) List(ctx context.Context, id *Identity, in ListInput) (*FileListResult, error) {
	if id == nil || id.UserID == "" {
		return nil, ErrUnauthorized
	}
	key := listKey(in)
	if cached, ok := s.cache.get(id.UserID, key); ok {
		return cached, nil
	}

	sortField, sortAsc := parseSort(in.Sort)
	res, err := s.repo.List(ctx, repository.ListQuery{
		OwnerID:    id.UserID,
		OwnerEmail: id.Email,
		Types:      in.Types,
		Search:     in.Search,
		SortField:  sortField,
		SortAsc:    sortAsc,
		Limit:      in.Limit,
	})
	if err != nil {
		return nil, err
	}
	result := &FileListResult{Items: res.Items, Total: res.Total}
	s.cache.put(id.UserID, key, result)
	return result, nil
}

func (s *fileService) Rename(ctx context.Context, id *Identity, fileID, name string) (*model.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	file, err := s.requireOwner(ctx, id, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, fileID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.invalidate(file.OwnerID)
	file.Name = name
	return file, nil
}

func (s *fileService) Share(ctx context.Context, id *Identity, fileID string, emails []string) (*model.File, error) {
	file, err := s.requireOwner(ctx, id, fileID)
	if err != nil {
		return nil, err
	}
	emails = normalizeEmails(emails)
	if err := s.repo.UpdateSharedWith(ctx, fileID, emails); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.invalidate(file.OwnerID)
	file.SharedWith = emails
	return file, nil
}

func (s *fileService) Delete(ctx context.Context, id *Identity, fileID string) error {
	file, err := s.requireOwner(ctx, id, fileID)
	if err != nil {
		return err
	}
	// Catalog first: once the row is gone the file is unreachable, so a
	// failed blob delete leaves garbage bytes, never a dangling reference.
	if err := s.repo.Delete(ctx, fileID); err != nil {
		return err
	}
	s.cache.invalidate(file.OwnerID)
	if err := s.store.Delete(ctx, file.BlobID); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *fileService) Usage(ctx context.Context, id *Identity) (*UsageReport, error) {
	if id == nil || id.UserID == "" {
		return nil, ErrUnauthorized
	}
	byType, err := s.repo.UsageByType(ctx, id.UserID, id.Email)
	if err != nil {
		return nil, err
	}
	report := &UsageReport{
		QuotaBytes: s.quotaBytes,
		ByType:     make(map[string]TypeUsage, len(byType)),
	}
	for typ, u := range byType {
		report.ByType[typ] = TypeUsage{TotalBytes: u.TotalBytes, LatestAt: u.LatestAt}
		report.UsedBytes += u.TotalBytes
	}
	return report, nil
}

func (s *fileService) find(ctx context.Context, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *fileService) requireOwner(ctx context.Context, id *Identity, fileID string) (*model.File, error) {
	if id == nil || id.UserID == "" {
		return nil, ErrUnauthorized
	}
	file, err := s.find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !CanWrite(file, id) {
		return nil, ErrForbidden
	}
	return file, nil
}

/// denied picks the error for a failed read gate: anonymous callers get a
// not-found so private files are indistinguishable from missing ones.
func (s *fileService) denied(id *Identity) error {
	if id == nil {
		return ErrNotFound
	}
	return ErrForbidden
}

// parseSort maps a caller sort expression to a repository sort. Accepted
// forms are "field-asc", "field-desc", a leading "-" for descending, and
// "$createdAt" style legacy aliases.
func parseSort(sort string) (field string, asc bool) {
	sort = strings.TrimSpace(sort)
	asc = true
	switch {
	case strings.HasSuffix(sort, "-desc"):
		asc = false
		sort = strings.TrimSuffix(sort, "-desc")
	case strings.HasSuffix(sort, "-asc"):
		sort = strings.TrimSuffix(sort, "-asc")
	case strings.HasPrefix(sort, "-"):
		asc = false
		sort = sort[1:]
	}
	sort = strings.TrimPrefix(sort, "$")
	switch sort {
	case "name":
		return "name", asc
	case "size":
		return "size", asc
	case "type":
		return "type", asc
	case "updatedAt", "updated_at":
		return "updated_at", asc
	case "createdAt", "created_at":
		return "created_at", asc
	case "":
		return "created_at", false
	default:
		return "created_at", false
	}
}

func listKey(in ListInput) string {
	types := append([]string(nil), in.Types...)
	sort.Strings(types)
	return fmt.Sprintf("t=%s|q=%s|s=%s|l=%d", strings.Join(types, ","), in.Search, in.Sort, in.Limit)
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.Contains(e, "@") || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// isMostlyText reports whether b looks like printable text, good enough to
// hand to the tagging model as a preview.
func isMostlyText(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	printable := 0
	for _, c := range b {
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c < 0x7f) || c >= 0x80 {
			printable++
		}
	}
	return printable*10 >= len(b)*9
}
