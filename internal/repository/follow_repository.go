package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coogmusic/coog-backend/internal/model"
)

// FollowTx is the set of statements that make up one follow/unfollow
// transition.  All of them run on the same *sql.Tx.  LockArtist must be
// called first: it takes the row lock on the artist that serializes every
// concurrent transition for that artist.
type FollowTx interface {
	LockArtist(ctx context.Context, artistID uint64) (uint64, error)
	LockFollow(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error)
	InsertFollow(ctx context.Context, userID, artistID uint64, at time.Time) error
	UpdateFollow(ctx context.Context, userID, artistID uint64, status model.FollowStatus, at time.Time) error
	AddFollowers(ctx context.Context, artistID uint64, delta int) (uint64, error)
	CountFollowing(ctx context.Context, artistID uint64) (uint64, error)
	SetFollowerCount(ctx context.Context, artistID, count uint64) error
}

// FollowRepo persists the follows table and the artists.follower_count
// aggregate.
type FollowRepo struct {
	db *sql.DB
}

// NewFollowRepo returns a new FollowRepo bound to the given database.
func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{db: db} }

// InTx runs fn inside a transaction and commits when fn returns nil.  Any
// error from fn rolls back both the relationship and the counter writes.
func (r *FollowRepo) InTx(ctx context.Context, fn func(FollowTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(&followTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Status returns the stored status for the pair or FollowAbsent when no
// row has ever existed.
func (r *FollowRepo) Status(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error) {
	var st model.FollowStatus
	err := r.db.QueryRowContext(ctx,
		"SELECT status FROM follows WHERE user_id=? AND artist_id=? LIMIT 1", userID, artistID).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FollowAbsent, nil
	}
	if err != nil {
		return "", err
	}
	return st, nil
}

// ArtistIDForUser returns the artist profile linked to userID, or nil when
// the user is not an artist.
func (r *FollowRepo) ArtistIDForUser(ctx context.Context, userID uint64) (*uint64, error) {
	var aid sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT artist_id FROM users WHERE id=? LIMIT 1", userID).Scan(&aid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !aid.Valid {
		return nil, nil
	}
	id := uint64(aid.Int64)
	return &id, nil
}

type followTx struct{ tx *sql.Tx }

func (t *followTx) LockArtist(ctx context.Context, artistID uint64) (uint64, error) {
	var n uint64
	err := t.tx.QueryRowContext(ctx,
		"SELECT follower_count FROM artists WHERE id=? FOR UPDATE", artistID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrArtistNotFound
	}
	return n, err
}

func (t *followTx) LockFollow(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error) {
	var st model.FollowStatus
	err := t.tx.QueryRowContext(ctx,
		"SELECT status FROM follows WHERE user_id=? AND artist_id=? FOR UPDATE", userID, artistID).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FollowAbsent, nil
	}
	if err != nil {
		return "", err
	}
	return st, nil
}

func (t *followTx) InsertFollow(ctx context.Context, userID, artistID uint64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO follows (user_id, artist_id, status, follow_date) VALUES (?,?,?,?)",
		userID, artistID, model.FollowFollowing, at.UTC())
	return err
}

func (t *followTx) UpdateFollow(ctx context.Context, userID, artistID uint64, status model.FollowStatus, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE follows SET status=?, follow_date=? WHERE user_id=? AND artist_id=?",
		status, at.UTC(), userID, artistID)
	return err
}

// AddFollowers applies delta to the counter, clamping at zero, and returns
// the new value.
func (t *followTx) AddFollowers(ctx context.Context, artistID uint64, delta int) (uint64, error) {
	var err error
	if delta >= 0 {
		_, err = t.tx.ExecContext(ctx,
			"UPDATE artists SET follower_count = follower_count + ? WHERE id=?", delta, artistID)
	} else {
		_, err = t.tx.ExecContext(ctx,
			"UPDATE artists SET follower_count = IF(follower_count > ?, follower_count - ?, 0) WHERE id=?",
			-delta, -delta, artistID)
	}
	if err != nil {
		return 0, err
	}
	var n uint64
	err = t.tx.QueryRowContext(ctx, "SELECT follower_count FROM artists WHERE id=?", artistID).Scan(&n)
	return n, err
}

func (t *followTx) CountFollowing(ctx context.Context, artistID uint64) (uint64, error) {
	var n uint64
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM follows WHERE artist_id=? AND status=?", artistID, model.FollowFollowing).Scan(&n)
	return n, err
}

func (t *followTx) SetFollowerCount(ctx context.Context, artistID, count uint64) error {
	_, err := t.tx.ExecContext(ctx, "UPDATE artists SET follower_count=? WHERE id=?", count, artistID)
	return err
}
