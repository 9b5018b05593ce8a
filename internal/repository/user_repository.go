package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/utils"
)

// UserRepo is the credential store.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the input to Create.  ArtistName is only used for the artist
// role and defaults to the username.
type NewUser struct {
	Username   string
	Email      string
	Password   string
	Role       model.Role
	ArtistName string
}

const userColumns = "id,username,email,password_hash,role,status,artist_id,created_at,updated_at"

// Create hashes the password and inserts the user.  For the artist role
// the linked artists row is created in the same transaction and its id is
// stored on the user.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, status) VALUES (?,?,?,?,?)",
		in.Username, in.Email, hash, in.Role, model.StatusActive)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrDuplicateRegistration
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uint64(id),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       model.StatusActive,
	}

	if in.Role == model.RoleArtist {
		name := strings.TrimSpace(in.ArtistName)
		if name == "" {
			name = in.Username
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO artists (user_id, name) VALUES (?,?)", u.ID, name)
		if err != nil {
			return model.User{}, err
		}
		aid, err := res.LastInsertId()
		if err != nil {
			return model.User{}, err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET artist_id=? WHERE id=?", aid, u.ID); err != nil {
			return model.User{}, err
		}
		artistID := uint64(aid)
		u.ArtistID = &artistID
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	committed = true
	return u, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// SetStatus activates or deactivates an account.  The connection is opened
// with clientFoundRows, so an unchanged row still counts as affected.
func (r *UserRepo) SetStatus(ctx context.Context, id uint64, status model.AccountStatus) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u        model.User
		artistID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&artistID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if artistID.Valid {
		id := uint64(artistID.Int64)
		u.ArtistID = &id
	}
	return u, nil
}
