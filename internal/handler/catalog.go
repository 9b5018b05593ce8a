package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
)

// ArtistReader is implemented by *repository.ArtistRepo.
type ArtistReader interface {
	GetByID(ctx context.Context, id uint64) (model.Artist, error)
}

// SongPlays is implemented by *repository.SongRepo.
type SongPlays interface {
	RecordPlay(ctx context.Context, songID uint64) (uint64, error)
}

// CatalogHandler serves the public artist profile and play tracking.
type CatalogHandler struct {
	Artists ArtistReader
	Songs   SongPlays
	Timeout time.Duration
	Log     *slog.Logger
}

func NewCatalogHandler(artists ArtistReader, songs SongPlays, log *slog.Logger) *CatalogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{Artists: artists, Songs: songs, Timeout: 5 * time.Second, Log: log}
}

type artistResp struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	FollowerCount uint64    `json:"followerCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GetArtist handles GET /artists/:artistId.
func (h *CatalogHandler) GetArtist(c echo.Context) error {
	id, ok := pathID(c, "artistId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artist id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	a, err := h.Artists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
		}
		h.Log.Error("get artist failed", "artist_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, artistResp{
		ID:            a.ID,
		Name:          a.Name,
		FollowerCount: a.FollowerCount,
		CreatedAt:     a.CreatedAt,
	})
}

// PlaySong handles POST /songs/:songId/play.
func (h *CatalogHandler) PlaySong(c echo.Context) error {
	id, ok := pathID(c, "songId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid song id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	n, err := h.Songs.RecordPlay(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "song not found"})
		}
		h.Log.Error("record play failed", "song_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"songId": id, "playCount": n})
}
