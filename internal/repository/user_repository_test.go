package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"

	"github.com/coogmusic/coog-backend/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestUserRepoCreateListener(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users (username, email, password_hash, role, status) VALUES (?,?,?,?,?)").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), "listener", "active").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	u, err := repo.Create(context.Background(), NewUser{
		Username: " alice ",
		Email:    "Alice@Example.com",
		Password: "pw",
		Role:     model.RoleListener,
	}, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID != 7 || u.ArtistID != nil || u.Status != model.StatusActive {
		t.Errorf("Create() = %+v", u)
	}
	if u.PasswordHash == "pw" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")) != nil {
		t.Error("password was not stored as a bcrypt hash")
	}
}

func TestUserRepoCreateArtistLinksProfile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users (username, email, password_hash, role, status) VALUES (?,?,?,?,?)").
		WithArgs("band", "band@example.com", sqlmock.AnyArg(), "artist", "active").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("INSERT INTO artists (user_id, name) VALUES (?,?)").
		WithArgs(uint64(12), "band").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("UPDATE users SET artist_id=? WHERE id=?").
		WithArgs(int64(3), uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := repo.Create(context.Background(), NewUser{
		Username: "band", Email: "band@example.com", Password: "pw", Role: model.RoleArtist,
	}, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ArtistID == nil || *u.ArtistID != 3 {
		t.Errorf("ArtistID = %v, want 3", u.ArtistID)
	}
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users (username, email, password_hash, role, status) VALUES (?,?,?,?,?)").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), NewUser{
		Username: "alice", Email: "a@example.com", Password: "pw", Role: model.RoleListener,
	}, bcrypt.MinCost)
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("Create() error = %v, want ErrDuplicateRegistration", err)
	}
}

func TestUserRepoGetByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()
	q := "SELECT " + userColumns + " FROM users WHERE username=? LIMIT 1"

	mock.ExpectQuery(q).WithArgs("band").WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "status", "artist_id", "created_at", "updated_at"}).
			AddRow(12, "band", "band@example.com", "$2a$hash", "artist", "active", 3, now, now))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnRows(
		sqlmock.NewRows([]string{"id"}))

	u, err := repo.GetByUsername(context.Background(), "band")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if u.Role != model.RoleArtist || u.ArtistID == nil || *u.ArtistID != 3 || !u.Active() {
		t.Errorf("GetByUsername() = %+v", u)
	}

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername(ghost) error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepoSetStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET status=? WHERE id=?").WithArgs("deactivated", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET status=? WHERE id=?").WithArgs("active", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetStatus(context.Background(), 7, model.StatusDeactivated); err != nil {
		t.Errorf("SetStatus() error = %v", err)
	}
	if err := repo.SetStatus(context.Background(), 99, model.StatusActive); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetStatus(99) error = %v, want ErrUserNotFound", err)
	}
}
