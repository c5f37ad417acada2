// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// SaveExercises stores all exercises in one transaction and returns them
// with IDs and timestamps set. If any insert fails, none are kept.
func (s *Store) SaveExercises(ctx context.Context, exercises []types.Exercise) ([]types.Exercise, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exercises (knowledge_point, type, question, options, answer, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ts := formatTime(now())
	saved := make([]types.Exercise, len(exercises))
	for i, ex := range exercises {
		options := ex.Options
		if options == nil {
			options = []string{}
		}
		optionsJSON, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("encoding options for exercise %d: %w", i+1, err)
		}
		res, err := stmt.ExecContext(ctx,
			ex.KnowledgePoint, string(ex.Kind), ex.Question, string(optionsJSON),
			ex.Answer, ex.Explanation, ts,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting exercise %d: %w", i+1, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading exercise id: %w", err)
		}
		ex.ID = id
		ex.CreatedAt = parseTime(ts)
		saved[i] = ex
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing exercises: %w", err)
	}
	return saved, nil
}

// ListExercises returns one page of exercises for a knowledge point, in
// insertion order. An empty knowledge point lists all exercises.
func (s *Store) ListExercises(ctx context.Context, knowledgePoint string, page, pageSize int) (types.Page[types.Exercise], error) {
	page, pageSize = s.pageBounds(page, pageSize)

	where := ` WHERE 1=1`
	var args []any
	if knowledgePoint != "" {
		where += ` AND knowledge_point = ?`
		args = append(args, knowledgePoint)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM exercises`+where, args...).Scan(&total); err != nil {
		return types.Page[types.Exercise]{}, fmt.Errorf("counting exercises: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, knowledge_point, type, question, options, answer, explanation, created_at
		 FROM exercises`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, pageSize, types.Offset(page, pageSize))...,
	)
	if err != nil {
		return types.Page[types.Exercise]{}, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var items []types.Exercise
	for rows.Next() {
		var (
			ex                    types.Exercise
			kind, opts, createdAt string
		)
		if err := rows.Scan(&ex.ID, &ex.KnowledgePoint, &kind, &ex.Question, &opts,
			&ex.Answer, &ex.Explanation, &createdAt); err != nil {
			return types.Page[types.Exercise]{}, fmt.Errorf("scanning row: %w", err)
		}
		ex.Kind = types.ExerciseKind(kind)
		ex.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(opts), &ex.Options); err != nil {
			return types.Page[types.Exercise]{}, fmt.Errorf("decoding options for exercise %d: %w", ex.ID, err)
		}
		if len(ex.Options) == 0 {
			ex.Options = nil
		}
		items = append(items, ex)
	}
	if err := rows.Err(); err != nil {
		return types.Page[types.Exercise]{}, err
	}

	return types.NewPage(items, total, page, pageSize), nil
}
