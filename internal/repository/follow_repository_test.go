package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/coogmusic/coog-backend/internal/model"
)

func TestFollowRepoInTxCommitsFollowTransition(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepo(db)
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT follower_count FROM artists WHERE id=? FOR UPDATE").WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"follower_count"}).AddRow(10))
	mock.ExpectQuery("SELECT status FROM follows WHERE user_id=? AND artist_id=? FOR UPDATE").
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectExec("INSERT INTO follows (user_id, artist_id, status, follow_date) VALUES (?,?,?,?)").
		WithArgs(uint64(7), uint64(3), "following", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE artists SET follower_count = follower_count + ? WHERE id=?").
		WithArgs(1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT follower_count FROM artists WHERE id=?").WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"follower_count"}).AddRow(11))
	mock.ExpectCommit()

	var count uint64
	err := repo.InTx(context.Background(), func(tx FollowTx) error {
		if _, err := tx.LockArtist(context.Background(), 3); err != nil {
			return err
		}
		st, err := tx.LockFollow(context.Background(), 7, 3)
		if err != nil {
			return err
		}
		if st != model.FollowAbsent {
			t.Errorf("LockFollow() = %q, want %q", st, model.FollowAbsent)
		}
		if err := tx.InsertFollow(context.Background(), 7, 3, at); err != nil {
			return err
		}
		count, err = tx.AddFollowers(context.Background(), 3, 1)
		return err
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
	if count != 11 {
		t.Errorf("follower_count = %d, want 11", count)
	}
}

func TestFollowRepoInTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT follower_count FROM artists WHERE id=? FOR UPDATE").WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"follower_count"}))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx FollowTx) error {
		_, err := tx.LockArtist(context.Background(), 404)
		return err
	})
	if !errors.Is(err, ErrArtistNotFound) {
		t.Errorf("InTx() error = %v, want ErrArtistNotFound", err)
	}
}

func TestFollowTxDecrementClampsAtZero(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE artists SET follower_count = IF(follower_count > ?, follower_count - ?, 0) WHERE id=?").
		WithArgs(1, 1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT follower_count FROM artists WHERE id=?").WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"follower_count"}).AddRow(0))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx FollowTx) error {
		n, err := tx.AddFollowers(context.Background(), 3, -1)
		if n != 0 {
			t.Errorf("AddFollowers() = %d, want 0", n)
		}
		return err
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
}

func TestFollowRepoStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepo(db)
	q := "SELECT status FROM follows WHERE user_id=? AND artist_id=? LIMIT 1"

	mock.ExpectQuery(q).WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("not_following"))
	mock.ExpectQuery(q).WithArgs(uint64(7), uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	if st, err := repo.Status(context.Background(), 7, 3); err != nil || st != model.FollowNotFollowing {
		t.Errorf("Status(7,3) = %q, %v", st, err)
	}
	if st, err := repo.Status(context.Background(), 7, 4); err != nil || st != model.FollowAbsent {
		t.Errorf("Status(7,4) = %q, %v", st, err)
	}
}

func TestFollowRepoArtistIDForUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepo(db)
	q := "SELECT artist_id FROM users WHERE id=? LIMIT 1"

	mock.ExpectQuery(q).WithArgs(uint64(12)).WillReturnRows(sqlmock.NewRows([]string{"artist_id"}).AddRow(3))
	mock.ExpectQuery(q).WithArgs(uint64(7)).WillReturnRows(sqlmock.NewRows([]string{"artist_id"}).AddRow(nil))
	mock.ExpectQuery(q).WithArgs(uint64(99)).WillReturnRows(sqlmock.NewRows([]string{"artist_id"}))

	if id, err := repo.ArtistIDForUser(context.Background(), 12); err != nil || id == nil || *id != 3 {
		t.Errorf("ArtistIDForUser(12) = %v, %v", id, err)
	}
	if id, err := repo.ArtistIDForUser(context.Background(), 7); err != nil || id != nil {
		t.Errorf("ArtistIDForUser(7) = %v, %v", id, err)
	}
	if _, err := repo.ArtistIDForUser(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ArtistIDForUser(99) error = %v, want ErrUserNotFound", err)
	}
}
