package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"drivebox/internal/model"
	"drivebox/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business
// logic. shared_with and tags live in JSONB columns; the `?` operator tests
// string membership in the share list.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, name, content_type, size, blob_id, owner_id, account_id, shared_with, is_public, type, extension, tags, url, created_at, updated_at`

// sortColumns whitelists ORDER BY targets; anything else falls back to
// created_at.
var sortColumns = map[string]string{
	"name":       "name",
	"size":       "size",
	"type":       "type",
	"extension":  "extension",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func scanFile(row interface{ Scan(...any) error }) (*model.File, error) {
	var f model.File
	var sharedWith, tags []byte
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.ContentType,
		&f.Size,
		&f.BlobID,
		&f.OwnerID,
		&f.AccountID,
		&sharedWith,
		&f.IsPublic,
		&f.Type,
		&f.Extension,
		&tags,
		&f.URL,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sharedWith, &f.SharedWith); err != nil {
		return nil, fmt.Errorf("decode shared_with: %w", err)
	}
	if err := json.Unmarshal(tags, &f.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &f, nil
}

func jsonArray(ss []string) ([]byte, error) {
	if ss == nil {
		ss = []string{}
	}
	return json.Marshal(ss)
}

// Create inserts a new catalog row; timestamps come from column defaults.
// The caller supplies the id.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	sharedWith, err := jsonArray(f.SharedWith)
	if err != nil {
		return nil, err
	}
	tags, err := jsonArray(f.Tags)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO files (id, name, content_type, size, blob_id, owner_id, account_id, shared_with, is_public, type, extension, tags, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Name,
		f.ContentType,
		f.Size,
		f.BlobID,
		f.OwnerID,
		f.AccountID,
		sharedWith,
		f.IsPublic,
		f.Type,
		f.Extension,
		tags,
		f.URL,
	)
	return scanFile(row)
}

// FindByID fetches a single catalog row by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// List applies the ownership filter plus optional type and name filters,
// counts the total, then fetches one sorted page.
func (r *FilePostgres) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.File], error) {
	where := `(owner_id = $1 OR shared_with ? $2)`
	args := []any{q.OwnerID, q.OwnerEmail}

	if len(q.Types) > 0 {
		where += fmt.Sprintf(" AND type = ANY(string_to_array($%d, ','))", len(args)+1)
		args = append(args, strings.Join(q.Types, ","))
	}
	if q.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	var total int
	countQ := `SELECT COUNT(*) FROM files WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, err
	}

	col, ok := sortColumns[q.SortField]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if q.SortAsc {
		dir = "ASC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	listQ := fmt.Sprintf(`SELECT %s FROM files WHERE %s ORDER BY %s %s, id DESC LIMIT $%d`,
		fileColumns, where, col, dir, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.File]{Items: items, Total: total}, nil
}

// Rename updates the display name in a single statement.
func (r *FilePostgres) Rename(ctx context.Context, id, name string) error {
	const q = `UPDATE files SET name = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateSharedWith replaces the share list in a single statement.
func (r *FilePostgres) UpdateSharedWith(ctx context.Context, id string, emails []string) error {
	payload, err := jsonArray(emails)
	if err != nil {
		return err
	}
	const q = `UPDATE files SET shared_with = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, payload)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetTags replaces the tag set in a single statement.
func (r *FilePostgres) SetTags(ctx context.Context, id string, tags []string) error {
	payload, err := jsonArray(tags)
	if err != nil {
		return err
	}
	const q = `UPDATE files SET tags = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, payload)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a catalog row by ID. It does not return an error if the
// row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// UsageByType aggregates bytes and the latest update per type over the
// ownership filter.
func (r *FilePostgres) UsageByType(ctx context.Context, ownerID, ownerEmail string) (map[string]repository.TypeUsage, error) {
	const q = `
		SELECT type, COALESCE(SUM(size), 0), MAX(updated_at)
		FROM files
		WHERE (owner_id = $1 OR shared_with ? $2)
		GROUP BY type
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID, ownerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]repository.TypeUsage)
	for rows.Next() {
		var t string
		var u repository.TypeUsage
		if err := rows.Scan(&t, &u.TotalBytes, &u.LatestAt); err != nil {
			return nil, err
		}
		out[t] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// requireRow maps a zero-row UPDATE to sql.ErrNoRows so callers can
// translate it to a not-found.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
