package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// DefaultChunkSize is 255 KiB, small enough to keep row sizes moderate and
// large enough to keep the row count per blob low.
const DefaultChunkSize = 255 * 1024

// PostgresStore implements BlobStore on top of two tables: blobs (one row
// per blob) and blob_chunks (ordered fixed-size segments). Chunks are
// written first and the blobs row last, so a blob is reachable only after a
// complete write; orphaned chunk rows from failed uploads are unreachable.
type PostgresStore struct {
	db        *sql.DB
	chunkSize int
}

var _ BlobStore = (*PostgresStore)(nil)

// NewPostgresStore creates a chunked blob store over db. chunkSize <= 0
// selects DefaultChunkSize.
func NewPostgresStore(db *sql.DB, chunkSize int) *PostgresStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &PostgresStore{db: db, chunkSize: chunkSize}
}

const (
	insertChunkSQL = `INSERT INTO blob_chunks (blob_id, n, data) VALUES ($1, $2, $3)`
	insertBlobSQL  = `INSERT INTO blobs (id, filename, content_type, length, chunk_size, upload_date) VALUES ($1, $2, $3, $4, $5, $6)`
	selectBlobSQL  = `SELECT filename, content_type, length, chunk_size, upload_date FROM blobs WHERE id = $1`
	selectChunkSQL = `SELECT n, data FROM blob_chunks WHERE blob_id = $1 AND n >= $2 ORDER BY n`
	headChunkSQL   = `SELECT n, data FROM blob_chunks WHERE blob_id = $1 ORDER BY n LIMIT $2`
	deleteBlobSQL  = `DELETE FROM blobs WHERE id = $1`
	deleteChunkSQL = `DELETE FROM blob_chunks WHERE blob_id = $1`
)

// Put streams r into chunk rows in write order. Chunk writes within one
// upload are sequential; byte order is preserved by the chunk index.
func (s *PostgresStore) Put(ctx context.Context, r io.Reader, opt PutBlobOptions) (string, BlobInfo, error) {
	if r == nil {
		return "", BlobInfo{}, errors.New("nil reader")
	}
	id := uuid.NewString()
	src := newProgressReader(r, opt.Size, opt.Progress)

	buf := make([]byte, s.chunkSize)
	var written int64
	chunk := 0
	for {
		read, err := io.ReadFull(src, buf)
		if read > 0 {
			if _, insErr := s.db.ExecContext(ctx, insertChunkSQL, id, chunk, buf[:read]); insErr != nil {
				s.discardChunks(id)
				return "", BlobInfo{}, fmt.Errorf("write chunk %d: %w", chunk, insErr)
			}
			written += int64(read)
			chunk++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			s.discardChunks(id)
			return "", BlobInfo{}, fmt.Errorf("read payload: %w", err)
		}
	}

	info := BlobInfo{
		ID:          id,
		Filename:    opt.Filename,
		ContentType: opt.ContentType,
		Size:        written,
		ChunkSize:   s.chunkSize,
		UploadedAt:  time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx, insertBlobSQL, id, info.Filename, info.ContentType, info.Size, info.ChunkSize, info.UploadedAt); err != nil {
		s.discardChunks(id)
		return "", BlobInfo{}, fmt.Errorf("finalize blob: %w", err)
	}
	return id, info, nil
}

// PutBuffer stores an in-memory payload.
func (s *PostgresStore) PutBuffer(ctx context.Context, buf []byte, filename, contentType string) (string, BlobInfo, error) {
	return s.Put(ctx, bytes.NewReader(buf), PutBlobOptions{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(buf)),
	})
}

// Open returns a demand-driven reader over [off, end). Chunk rows are pulled
// from a live cursor one at a time as the consumer reads, so a slow consumer
// never forces unbounded buffering; Close releases the cursor.
func (s *PostgresStore) Open(ctx context.Context, id string, off, end int64) (io.ReadCloser, BlobInfo, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, BlobInfo{}, err
	}
	if off < 0 {
		off = 0
	}
	if end < 0 || end > info.Size {
		end = info.Size
	}
	if off > end || (off >= info.Size && info.Size > 0) {
		return nil, BlobInfo{}, ErrInvalidRange
	}
	if off == end {
		return io.NopCloser(bytes.NewReader(nil)), info, nil
	}

	startChunk := off / int64(info.ChunkSize)
	rows, err := s.db.QueryContext(ctx, selectChunkSQL, id, startChunk)
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("open chunk cursor: %w", err)
	}
	return &chunkReader{
		rows:      rows,
		skip:      off % int64(info.ChunkSize),
		remaining: end - off,
		next:      int(startChunk),
	}, info, nil
}

// Head reads at most maxBytes from the start of the blob, fetching only the
// chunk rows needed to cover the prefix.
func (s *PostgresStore) Head(ctx context.Context, id string, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, err
	}
	limit := (maxBytes + info.ChunkSize - 1) / info.ChunkSize

	rows, err := s.db.QueryContext(ctx, headChunkSQL, id, limit)
	if err != nil {
		return nil, fmt.Errorf("read head chunks: %w", err)
	}
	defer rows.Close()

	out := make([]byte, 0, maxBytes)
	for rows.Next() && len(out) < maxBytes {
		var n int
		var data []byte
		if err := rows.Scan(&n, &data); err != nil {
			return nil, err
		}
		if need := maxBytes - len(out); len(data) > need {
			data = data[:need]
		}
		out = append(out, data...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stat returns blob metadata only.
func (s *PostgresStore) Stat(ctx context.Context, id string) (BlobInfo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return BlobInfo{}, ErrBlobNotFound
	}
	info := BlobInfo{ID: id}
	err := s.db.QueryRowContext(ctx, selectBlobSQL, id).Scan(
		&info.Filename,
		&info.ContentType,
		&info.Size,
		&info.ChunkSize,
		&info.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return BlobInfo{}, ErrBlobNotFound
	}
	if err != nil {
		return BlobInfo{}, fmt.Errorf("stat blob: %w", err)
	}
	return info, nil
}

// Delete removes the blob row and every chunk. Unknown ids are a no-op.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, deleteBlobSQL, id); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, deleteChunkSQL, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// discardChunks is best-effort cleanup after a failed Put. The request
// context may already be canceled, so a fresh one is used.
func (s *PostgresStore) discardChunks(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = s.db.ExecContext(ctx, deleteChunkSQL, id)
}

// chunkReader reassembles a blob's byte range from its chunk cursor.
type chunkReader struct {
	rows      *sql.Rows
	buf       []byte // unread remainder of the current chunk
	skip      int64  // bytes to discard from the first chunk
	remaining int64  // bytes left to emit
	next      int    // expected chunk index, for gap detection
	closed    bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	for len(r.buf) == 0 {
		if !r.rows.Next() {
			if err := r.rows.Err(); err != nil {
				return 0, err
			}
			// The cursor ran out before the declared length was served.
			return 0, io.ErrUnexpectedEOF
		}
		var n int
		var data []byte
		if err := r.rows.Scan(&n, &data); err != nil {
			return 0, err
		}
		if n != r.next {
			return 0, fmt.Errorf("chunk sequence gap: got %d, want %d", n, r.next)
		}
		r.next++
		if r.skip > 0 {
			if r.skip >= int64(len(data)) {
				r.skip -= int64(len(data))
				continue
			}
			data = data[r.skip:]
			r.skip = 0
		}
		r.buf = data
	}

	limit := len(p)
	if int64(limit) > r.remaining {
		limit = int(r.remaining)
	}
	n := copy(p[:limit], r.buf)
	r.buf = r.buf[n:]
	r.remaining -= int64(n)
	if r.remaining == 0 {
		// Release the cursor as soon as the range is fully served.
		r.Close()
	}
	return n, nil
}

// Close releases the chunk cursor. It is safe to call more than once.
func (r *chunkReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}
