package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coogmusic/coog-backend/internal/model"
)

// ArtistRepo reads artist profiles.  follower_count is written only by
// FollowRepo.
type ArtistRepo struct{ DB *sql.DB }

func NewArtistRepo(db *sql.DB) *ArtistRepo { return &ArtistRepo{DB: db} }

// GetByID returns the artist with its cached follower count.
func (r *ArtistRepo) GetByID(ctx context.Context, id uint64) (model.Artist, error) {
	var a model.Artist
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,name,follower_count,created_at FROM artists WHERE id=? LIMIT 1", id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.FollowerCount, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Artist{}, ErrArtistNotFound
	}
	return a, err
}
