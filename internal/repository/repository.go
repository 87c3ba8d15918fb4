package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

// PageResult is a generic pagination result wrapper.
// T is typically a model type. Total counts rows ignoring the limit.
type PageResult[T any] struct {
	Items []T
	Total int
}
