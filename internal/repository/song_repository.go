package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SongRepo maintains play counters.
type SongRepo struct{ DB *sql.DB }

func NewSongRepo(db *sql.DB) *SongRepo { return &SongRepo{DB: db} }

// RecordPlay bumps the lifetime and monthly counters of a song and returns
// the new lifetime count.
func (r *SongRepo) RecordPlay(ctx context.Context, songID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE songs SET play_count = play_count + 1, monthly_plays = monthly_plays + 1 WHERE id=?", songID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrSongNotFound
	}
	var count uint64
	err = r.DB.QueryRowContext(ctx, "SELECT play_count FROM songs WHERE id=?", songID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSongNotFound
	}
	return count, err
}

// ResetMonthlyPlays zeroes monthly_plays for every song, once per period
// (formatted "2006-01").  It reports false when the period was already
// reset, which makes the job safe to run from several instances.
func (r *SongRepo) ResetMonthlyPlays(ctx context.Context, period string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO job_runs (job, period) VALUES ('monthly_plays_reset', ?)", period); err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE songs SET monthly_plays = 0"); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
