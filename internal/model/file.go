package model

import "time"

// File is the catalog record for one stored object. It is a pure domain
// model with no database-specific dependencies or tags; the blob referenced
// by BlobID holds the actual bytes in the chunk store.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	BlobID      string    `json:"blob_id"`
	OwnerID     string    `json:"owner_id"`
	AccountID   string    `json:"account_id"`
	SharedWith  []string  `json:"shared_with"`
	IsPublic    bool      `json:"is_public"`
	Type        string    `json:"type"`
	Extension   string    `json:"extension"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SharedWithContains reports whether email appears in the share list.
func (f *File) SharedWithContains(email string) bool {
	for _, e := range f.SharedWith {
		if e == email {
			return true
		}
	}
	return false
}
