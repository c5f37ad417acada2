// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/resource-curator/pkg/types"
)

const resourceColumns = `id, title, type, content, source_url, tags, created_at, updated_at`

// Create validates rec, stores it, and returns it with ID and timestamps set.
func (s *Store) Create(ctx context.Context, rec types.ResourceRecord) (types.ResourceRecord, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if err := rec.Validate(); err != nil {
		return types.ResourceRecord{}, err
	}
	rec.Content = s.sanitize(rec.Content)

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO resources (title, type, content, source_url, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, string(rec.Type), rec.Content, rec.SourceURL, rec.Tags,
		formatTime(ts), formatTime(ts),
	)
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("inserting resource: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("reading resource id: %w", err)
	}

	rec.ID = id
	rec.CreatedAt = parseTime(formatTime(ts))
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}

// Get returns the resource with the given id.
func (s *Store) Get(ctx context.Context, id int64) (types.ResourceRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	rec, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResourceRecord{}, notFound("resource", id)
	}
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("looking up resource: %w", err)
	}
	return rec, nil
}

// Update applies patch to the resource with the given id and returns the
// stored result. An empty patch returns the record unchanged.
func (s *Store) Update(ctx context.Context, id int64, patch types.ResourcePatch) (types.ResourceRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	current, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResourceRecord{}, notFound("resource", id)
	}
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("looking up resource: %w", err)
	}
	if patch.IsEmpty() {
		return current, nil
	}

	next, err := patch.Apply(current)
	if err != nil {
		return types.ResourceRecord{}, err
	}
	next.Title = strings.TrimSpace(next.Title)
	next.Content = s.sanitize(next.Content)
	ts := now()

	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET title = ?, type = ?, content = ?, source_url = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		next.Title, string(next.Type), next.Content, next.SourceURL, next.Tags, formatTime(ts), id,
	)
	if err != nil {
		return types.ResourceRecord{}, fmt.Errorf("updating resource: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.ResourceRecord{}, fmt.Errorf("committing update: %w", err)
	}

	next.UpdatedAt = parseTime(formatTime(ts))
	return next, nil
}

// Delete removes the resource with the given id. It reports whether a row
// was removed; favorites pointing at the resource go with it.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// SearchOptions filters and pages a resource search.
type SearchOptions struct {
	// Text matches title or tags as a case-insensitive substring.
	Text string

	// Match is a full-text query over title, content, and tags.
	Match string

	// Type restricts results to one resource type.
	Type types.ResourceType

	Page     int
	PageSize int
}

// Search returns one page of resources, newest first, with the total
// number of matches counted by the database.
func (s *Store) Search(ctx context.Context, opts SearchOptions) (types.Page[types.ResourceRecord], error) {
	page, pageSize := s.pageBounds(opts.Page, opts.PageSize)
	return s.search(ctx, opts, page, pageSize)
}

func (s *Store) search(ctx context.Context, opts SearchOptions, page, pageSize int) (types.Page[types.ResourceRecord], error) {
	var (
		where strings.Builder
		args  []any
	)
	where.WriteString(` WHERE 1=1`)

	if text := strings.TrimSpace(opts.Text); text != "" {
		where.WriteString(` AND (r.title LIKE ? ESCAPE '\' OR r.tags LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(text) + "%"
		args = append(args, pattern, pattern)
	}

	if match := strings.TrimSpace(opts.Match); match != "" {
		if s.fts {
			where.WriteString(` AND r.id IN (SELECT rowid FROM resources_fts WHERE resources_fts MATCH ?)`)
			args = append(args, ftsQuery(match))
		} else {
			where.WriteString(` AND (r.title LIKE ? ESCAPE '\' OR r.content LIKE ? ESCAPE '\' OR r.tags LIKE ? ESCAPE '\')`)
			pattern := "%" + escapeLike(match) + "%"
			args = append(args, pattern, pattern, pattern)
		}
	}

	if opts.Type != "" {
		where.WriteString(` AND r.type = ?`)
		args = append(args, string(opts.Type))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM resources r`+where.String(), args...).Scan(&total); err != nil {
		return types.Page[types.ResourceRecord]{}, fmt.Errorf("counting resources: %w", err)
	}

	query := `SELECT ` + prefixed("r", resourceColumns) + ` FROM resources r` + where.String() +
		` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, types.Offset(page, pageSize))...)
	if err != nil {
		return types.Page[types.ResourceRecord]{}, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()

	var items []types.ResourceRecord
	for rows.Next() {
		rec, err := scanResource(rows)
		if err != nil {
			return types.Page[types.ResourceRecord]{}, fmt.Errorf("scanning row: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return types.Page[types.ResourceRecord]{}, err
	}

	return types.NewPage(items, total, page, pageSize), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(sc scanner) (types.ResourceRecord, error) {
	var (
		rec                  types.ResourceRecord
		typ                  string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&rec.ID, &rec.Title, &typ, &rec.Content, &rec.SourceURL, &rec.Tags, &createdAt, &updatedAt); err != nil {
		return types.ResourceRecord{}, err
	}
	rec.Type = types.ResourceType(typ)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ftsQuery quotes each term so user input cannot use FTS5 operators.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
