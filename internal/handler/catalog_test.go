package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
)

type mockArtists struct {
	GetByIDFunc func(ctx context.Context, id uint64) (model.Artist, error)
}

func (m *mockArtists) GetByID(ctx context.Context, id uint64) (model.Artist, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockSongs struct {
	RecordPlayFunc func(ctx context.Context, songID uint64) (uint64, error)
}

func (m *mockSongs) RecordPlay(ctx context.Context, songID uint64) (uint64, error) {
	return m.RecordPlayFunc(ctx, songID)
}

func withParam(method, name, value string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c, rec
}

func TestGetArtist(t *testing.T) {
	artists := &mockArtists{
		GetByIDFunc: func(_ context.Context, id uint64) (model.Artist, error) {
			switch id {
			case 3:
				return model.Artist{ID: 3, Name: "The Coogs", FollowerCount: 11, CreatedAt: time.Unix(0, 0)}, nil
			case 5:
				return model.Artist{}, errors.New("db down")
			}
			return model.Artist{}, repository.ErrArtistNotFound
		},
	}
	h := NewCatalogHandler(artists, nil, nil)

	tests := []struct {
		id         string
		wantStatus int
	}{
		{"3", http.StatusOK},
		{"4", http.StatusNotFound},
		{"5", http.StatusInternalServerError},
		{"x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		c, rec := withParam(http.MethodGet, "artistId", tt.id)
		_ = h.GetArtist(c)
		if rec.Code != tt.wantStatus {
			t.Errorf("artist %s: status = %d, want %d", tt.id, rec.Code, tt.wantStatus)
			continue
		}
		if rec.Code == http.StatusOK {
			body := decode(t, rec)
			if body["followerCount"] != float64(11) || body["name"] != "The Coogs" {
				t.Errorf("body = %v", body)
			}
		}
	}
}

func TestPlaySong(t *testing.T) {
	songs := &mockSongs{
		RecordPlayFunc: func(_ context.Context, id uint64) (uint64, error) {
			if id == 1 {
				return 42, nil
			}
			return 0, repository.ErrSongNotFound
		},
	}
	h := NewCatalogHandler(nil, songs, nil)

	c, rec := withParam(http.MethodPost, "songId", "1")
	_ = h.PlaySong(c)
	if rec.Code != http.StatusOK || decode(t, rec)["playCount"] != float64(42) {
		t.Errorf("play: %d %s", rec.Code, rec.Body.String())
	}

	c, rec = withParam(http.MethodPost, "songId", "2")
	_ = h.PlaySong(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing song status = %d, want 404", rec.Code)
	}
}
