package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains the chunked blob store: large binary payloads are
// split into fixed-size chunks on write and reassembled lazily on read.
// Implementations must avoid using local disk and rely on streaming I/O only.

// ErrBlobNotFound is returned when no blob exists for the given id.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidRange is returned when a requested byte range starts at or past
// the end of the blob.
var ErrInvalidRange = errors.New("invalid byte range")

// ProgressFunc receives coarse upload progress. It is invoked only when the
// integer percentage advances, never more than 100 times per upload.
type ProgressFunc func(written, total int64)

// PutBlobOptions define optional parameters for storing blobs.
// Size should be the exact number of bytes if known; if unknown, set to -1.
// Progress is only honored when Size is known.
type PutBlobOptions struct {
	Filename    string
	ContentType string
	Size        int64
	Progress    ProgressFunc
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	ChunkSize   int
	UploadedAt  time.Time
}

// BlobStore is the chunked large-object store. All methods are safe for
// concurrent use; ordering is only guaranteed within a single blob, where
// read order equals write order equals byte order.
type BlobStore interface {
	// Put consumes r fully, splitting it into chunks as bytes arrive, and
	// returns the id of the new blob. The blob becomes visible only after
	// the full write succeeds; a failed or aborted Put leaves nothing
	// reachable.
	Put(ctx context.Context, r io.Reader, opt PutBlobOptions) (string, BlobInfo, error)

	// PutBuffer stores an in-memory payload with the same semantics as Put.
	PutBuffer(ctx context.Context, buf []byte, filename, contentType string) (string, BlobInfo, error)

	// Open returns a lazy reader over the blob's bytes in [off, end).
	// end < 0 means end-of-blob. The reader fetches chunks on demand and is
	// not restartable; Close releases the underlying cursor.
	Open(ctx context.Context, id string, off, end int64) (io.ReadCloser, BlobInfo, error)

	// Head returns at most maxBytes from the start of the blob without
	// traversing the full chunk sequence.
	Head(ctx context.Context, id string, maxBytes int) ([]byte, error)

	// Stat returns blob metadata only.
	Stat(ctx context.Context, id string) (BlobInfo, error)

	// Delete removes the blob and all of its chunks. Deleting an unknown id
	// is not an error.
	Delete(ctx context.Context, id string) error
}

// progressReader wraps r and reports percent-boundary progress to fn.
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	lastPct int
	fn      ProgressFunc
}

// newProgressReader returns r unchanged when progress cannot be reported
// (no callback, or total size unknown).
func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, lastPct: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		pct := int(p.written * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.fn(p.written, p.total)
		}
	}
	return n, err
}
