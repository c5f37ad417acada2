// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// AddFavorite records that userID favorited resourceID. Favoriting the
// same resource again replaces the notes and keeps the original time.
func (s *Store) AddFavorite(ctx context.Context, userID, resourceID int64, notes string) (types.Favorite, error) {
	rec, err := s.Get(ctx, resourceID)
	if err != nil {
		return types.Favorite{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, resource_id, notes, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, resource_id) DO UPDATE SET notes = excluded.notes`,
		userID, resourceID, notes, formatTime(now()),
	)
	if err != nil {
		return types.Favorite{}, fmt.Errorf("upserting favorite: %w", err)
	}

	fav := types.Favorite{UserID: userID, Notes: notes, Resource: rec}
	var createdAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM favorites WHERE user_id = ? AND resource_id = ?`,
		userID, resourceID,
	).Scan(&fav.ID, &createdAt)
	if err != nil {
		return types.Favorite{}, fmt.Errorf("reading favorite: %w", err)
	}
	fav.FavoritedAt = parseTime(createdAt)
	return fav, nil
}

// RemoveFavorite deletes the favorite and reports whether one existed.
func (s *Store) RemoveFavorite(ctx context.Context, userID, resourceID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND resource_id = ?`, userID, resourceID)
	if err != nil {
		return false, fmt.Errorf("deleting favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// IsFavorite reports whether userID has favorited resourceID.
func (s *Store) IsFavorite(ctx context.Context, userID, resourceID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE user_id = ? AND resource_id = ?`, userID, resourceID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return true, nil
}

// ListFavorites returns one page of userID's favorites, most recent first,
// each joined with its resource.
func (s *Store) ListFavorites(ctx context.Context, userID int64, page, pageSize int) (types.Page[types.Favorite], error) {
	page, pageSize = s.pageBounds(page, pageSize)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM favorites WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return types.Page[types.Favorite]{}, fmt.Errorf("counting favorites: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.notes, f.created_at, `+prefixed("r", resourceColumns)+`
		 FROM favorites f JOIN resources r ON r.id = f.resource_id
		 WHERE f.user_id = ?
		 ORDER BY f.created_at DESC, f.id DESC LIMIT ? OFFSET ?`,
		userID, pageSize, types.Offset(page, pageSize),
	)
	if err != nil {
		return types.Page[types.Favorite]{}, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	var items []types.Favorite
	for rows.Next() {
		var (
			fav                  types.Favorite
			favAt, typ           string
			createdAt, updatedAt string
			rec                  = &fav.Resource
		)
		if err := rows.Scan(&fav.ID, &fav.Notes, &favAt,
			&rec.ID, &rec.Title, &typ, &rec.Content, &rec.SourceURL, &rec.Tags, &createdAt, &updatedAt,
		); err != nil {
			return types.Page[types.Favorite]{}, fmt.Errorf("scanning row: %w", err)
		}
		fav.UserID = userID
		fav.FavoritedAt = parseTime(favAt)
		rec.Type = types.ResourceType(typ)
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		items = append(items, fav)
	}
	if err := rows.Err(); err != nil {
		return types.Page[types.Favorite]{}, err
	}

	return types.NewPage(items, total, page, pageSize), nil
}
