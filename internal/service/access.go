package service

import "drivebox/internal/model"

// Identity is the caller's resolved identity. A nil Identity means an
// anonymous request.
type Identity struct {
	UserID string
	Email  string
}

// CanRead reports whether id may read file. Public files are readable by
// anyone. Otherwise the caller must own the file or appear on its share list.
func CanRead(file *model.File, id *Identity) bool {
	if file == nil {
		return false
	}
	if file.IsPublic {
		return true
	}
	if id == nil {
		return false
	}
	if id.UserID != "" && id.UserID == file.OwnerID {
		return true
	}
	return id.Email != "" && file.SharedWithContains(id.Email)
}

// CanWrite reports whether id may mutate file. Only the owner may rename,
// share, or delete.
func CanWrite(file *model.File, id *Identity) bool {
	if file == nil || id == nil {
		return false
	}
	return id.UserID != "" && id.UserID == file.OwnerID
}
