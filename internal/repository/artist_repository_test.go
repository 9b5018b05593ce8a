package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestArtistRepoGetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArtistRepo(db)
	q := "SELECT id,user_id,name,follower_count,created_at FROM artists WHERE id=? LIMIT 1"

	mock.ExpectQuery(q).WithArgs(uint64(3)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "name", "follower_count", "created_at"}).
			AddRow(3, 12, "The Coogs", 10, time.Now()))
	mock.ExpectQuery(q).WithArgs(uint64(4)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	a, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if a.Name != "The Coogs" || a.FollowerCount != 10 || a.UserID != 12 {
		t.Errorf("GetByID() = %+v", a)
	}
	if _, err := repo.GetByID(context.Background(), 4); !errors.Is(err, ErrArtistNotFound) {
		t.Errorf("GetByID(4) error = %v, want ErrArtistNotFound", err)
	}
}
