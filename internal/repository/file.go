package repository

import (
	"context"
	"time"

	"drivebox/internal/model"
)

// FileRepository defines data access for the file catalog using SQL queries
// only. No business logic here, strictly persistence operations. All
// mutations are single-statement field-level updates so concurrent edits on
// the same row never lose each other's writes.
type FileRepository interface {
	// Create inserts a new catalog record and returns the stored row
	// (including values set by the database).
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// List returns files visible to the owner identity (owned or shared
	// with), filtered and sorted per the query, plus a total count that
	// ignores the limit.
	List(ctx context.Context, q ListQuery) (*PageResult[model.File], error)

	// Rename updates the display name and bumps updated_at.
	Rename(ctx context.Context, id, name string) error

	// UpdateSharedWith replaces the share list and bumps updated_at.
	UpdateSharedWith(ctx context.Context, id string, emails []string) error

	// SetTags replaces the tag set and bumps updated_at.
	SetTags(ctx context.Context, id string, tags []string) error

	// Delete removes a file by ID. It returns nil if the row was deleted or
	// did not exist.
	Delete(ctx context.Context, id string) error

	// UsageByType aggregates total bytes and the most recent update time
	// per file type over the same ownership filter as List.
	UsageByType(ctx context.Context, ownerID, ownerEmail string) (map[string]TypeUsage, error)
}

// ListQuery holds the ownership filter plus optional type/search filters,
// sorting and limit for catalog listings.
type ListQuery struct {
	OwnerID    string
	OwnerEmail string
	Types      []string
	Search     string
	SortField  string // whitelisted column; empty means created_at
	SortAsc    bool
	Limit      int // <= 0 means the default of 100
}

// TypeUsage is one row of the per-type storage aggregate.
type TypeUsage struct {
	TotalBytes int64
	LatestAt   time.Time
}
