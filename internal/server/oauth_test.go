package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func newTestHandler() *OAuthHandler {
	config := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "http://localhost/auth", TokenURL: "http://localhost/token"},
	}
	return NewOAuthHandler(config, "expected_state")
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Rejects Bad State", func(t *testing.T) {
		handler := newTestHandler()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=abc", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state error in result")
		}
	})

	t.Run("Relays Authorization Errors", func(t *testing.T) {
		handler := newTestHandler()
		req := httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&error=access_denied&error_description=denied", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected authorization error")
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler := newTestHandler()

		first := httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 for replayed callback", rec.Code)
		}
	})
}
