package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/model"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		identity   *Identity
		required   model.Role
		wantStatus int
	}{
		{"exact match", &Identity{UserID: 1, Role: model.RoleAdmin}, model.RoleAdmin, http.StatusOK},
		{"admin is not artist", &Identity{UserID: 1, Role: model.RoleAdmin}, model.RoleArtist, http.StatusForbidden},
		{"listener is not admin", &Identity{UserID: 2, Role: model.RoleListener}, model.RoleAdmin, http.StatusForbidden},
		{"case sensitive", &Identity{UserID: 3, Role: "Admin"}, model.RoleAdmin, http.StatusForbidden},
		{"no identity", nil, model.RoleListener, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.identity != nil {
				SetIdentity(c, *tt.identity)
			}

			h := RequireRole(tt.required)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
