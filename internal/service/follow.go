// Package service holds the follow relationship state machine and the
// scheduled jobs.  HTTP concerns stay in the handler package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coogmusic/coog-backend/internal/metrics"
	"github.com/coogmusic/coog-backend/internal/model"
	q "github.com/coogmusic/coog-backend/internal/queue"
	"github.com/coogmusic/coog-backend/internal/repository"
)

var (
	ErrAlreadyFollowing = errors.New("already following this artist")
	ErrNotFollowing     = errors.New("not following this artist")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)

// FollowStore is the persistence the state machine needs.  FollowRepo
// implements it against MySQL.
type FollowStore interface {
	InTx(ctx context.Context, fn func(repository.FollowTx) error) error
	Status(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error)
	ArtistIDForUser(ctx context.Context, userID uint64) (*uint64, error)
}

// FollowResult reports the state after a successful transition.
type FollowResult struct {
	Status        model.FollowStatus
	FollowerCount uint64
}

// FollowService maintains the user→artist follow relationship and the
// artist's follower_count.  Each transition runs in one transaction that
// first locks the artist row, so toggles on the same artist are serialized
// and the counter cannot lose updates.
type FollowService struct {
	store  FollowStore
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewFollowService wires the state machine.  events may be nil.
func NewFollowService(store FollowStore, events EventPublisher, log *slog.Logger) *FollowService {
	if log == nil {
		log = slog.Default()
	}
	return &FollowService{store: store, events: events, log: log, now: time.Now}
}

// Follow moves the pair to following.  It fails with ErrCannotFollowSelf
// when the user owns the artist profile, ErrAlreadyFollowing when already
// following, and repository.ErrArtistNotFound / ErrUserNotFound for unknown
// ids.
func (s *FollowService) Follow(ctx context.Context, userID, artistID uint64) (FollowResult, error) {
	own, err := s.store.ArtistIDForUser(ctx, userID)
	if err != nil {
		return FollowResult{}, s.outcome("follow", err)
	}
	if own != nil && *own == artistID {
		return FollowResult{}, s.outcome("follow", ErrCannotFollowSelf)
	}

	var res FollowResult
	err = s.store.InTx(ctx, func(tx repository.FollowTx) error {
		if _, err := tx.LockArtist(ctx, artistID); err != nil {
			return err
		}
		st, err := tx.LockFollow(ctx, userID, artistID)
		if err != nil {
			return err
		}
		now := s.now()
		switch st {
		case model.FollowFollowing:
			return ErrAlreadyFollowing
		case model.FollowAbsent:
			err = tx.InsertFollow(ctx, userID, artistID, now)
		default:
			err = tx.UpdateFollow(ctx, userID, artistID, model.FollowFollowing, now)
		}
		if err != nil {
			return err
		}
		n, err := tx.AddFollowers(ctx, artistID, 1)
		if err != nil {
			return err
		}
		res = FollowResult{Status: model.FollowFollowing, FollowerCount: n}
		return nil
	})
	if err != nil {
		return FollowResult{}, s.outcome("follow", err)
	}
	s.outcome("follow", nil)
	s.publish("follow", userID, artistID, res.FollowerCount)
	return res, nil
}

// Unfollow moves the pair from following to not_following.  Any other
// starting state fails with ErrNotFollowing and changes nothing.
func (s *FollowService) Unfollow(ctx context.Context, userID, artistID uint64) (FollowResult, error) {
	var res FollowResult
	err := s.store.InTx(ctx, func(tx repository.FollowTx) error {
		if _, err := tx.LockArtist(ctx, artistID); err != nil {
			return err
		}
		st, err := tx.LockFollow(ctx, userID, artistID)
		if err != nil {
			return err
		}
		if st != model.FollowFollowing {
			return ErrNotFollowing
		}
		if err := tx.UpdateFollow(ctx, userID, artistID, model.FollowNotFollowing, s.now()); err != nil {
			return err
		}
		n, err := tx.AddFollowers(ctx, artistID, -1)
		if err != nil {
			return err
		}
		res = FollowResult{Status: model.FollowNotFollowing, FollowerCount: n}
		return nil
	})
	if err != nil {
		return FollowResult{}, s.outcome("unfollow", err)
	}
	s.outcome("unfollow", nil)
	s.publish("unfollow", userID, artistID, res.FollowerCount)
	return res, nil
}

// Status reports following, not_following, or not_followed.
func (s *FollowService) Status(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error) {
	return s.store.Status(ctx, userID, artistID)
}

// Recount recomputes follower_count from the follows table and stores it.
func (s *FollowService) Recount(ctx context.Context, artistID uint64) (uint64, error) {
	var n uint64
	err := s.store.InTx(ctx, func(tx repository.FollowTx) error {
		before, err := tx.LockArtist(ctx, artistID)
		if err != nil {
			return err
		}
		if n, err = tx.CountFollowing(ctx, artistID); err != nil {
			return err
		}
		if n != before {
			s.log.Warn("follower_count drift repaired", "artist_id", artistID, "cached", before, "actual", n)
		}
		return tx.SetFollowerCount(ctx, artistID, n)
	})
	if err != nil {
		return 0, fmt.Errorf("recount artist %d: %w", artistID, err)
	}
	return n, nil
}

// outcome records the transition result in metrics and passes err through.
func (s *FollowService) outcome(action string, err error) error {
	label := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyFollowing):
		label = "already_following"
	case errors.Is(err, ErrNotFollowing):
		label = "not_following"
	case errors.Is(err, ErrCannotFollowSelf):
		label = "self"
	case errors.Is(err, repository.ErrArtistNotFound), errors.Is(err, repository.ErrUserNotFound):
		label = "not_found"
	default:
		label = "error"
	}
	metrics.FollowTransitions.WithLabelValues(action, label).Inc()
	return err
}

func (s *FollowService) publish(action string, userID, artistID, count uint64) {
	if s.events == nil {
		return
	}
	ev := q.FollowEvent{
		Action:        action,
		UserID:        userID,
		ArtistID:      artistID,
		FollowerCount: count,
		OccurredAt:    s.now().UTC(),
	}
	// The request does not wait on the broker.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.PublishFollow(ctx, ev); err != nil {
			s.log.Warn("publish follow event failed", "action", action, "err", err)
		}
	}()
}
