package model

import "time"

// User is an account record. PasswordHash is opaque to this service: hashing
// and verification belong to the external auth layer and the hash is never
// serialized into API responses.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
