// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/services"
)

// MockRoundTripper returns a fixed HTTP response (or error) for every request.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function to http.RoundTripper for scripted responses.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// JSONResponse builds an *http.Response with a JSON body for transport mocks.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// MockMusicService is a test double for [services.MusicService] with
// per-method overrides.
type MockMusicService struct {
	CurrentUserFunc    func(ctx context.Context) (*services.User, error)
	TopTracksFunc      func(ctx context.Context, timeRange services.TimeRange, limit int) ([]models.Track, error)
	RecentlyPlayedFunc func(ctx context.Context, limit int) ([]models.Track, error)
	AudioFeaturesFunc  func(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error)
	CreatePlaylistFunc func(ctx context.Context, userID, name, description string, public bool) (*services.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, uris []string) (string, error)
	SearchTracksFunc   func(ctx context.Context, query string, limit int) ([]models.Track, error)
}

func (m *MockMusicService) CurrentUser(ctx context.Context) (*services.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &services.User{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockMusicService) TopTracks(ctx context.Context, timeRange services.TimeRange, limit int) ([]models.Track, error) {
	if m.TopTracksFunc != nil {
		return m.TopTracksFunc(ctx, timeRange, limit)
	}
	return nil, nil
}

func (m *MockMusicService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if m.RecentlyPlayedFunc != nil {
		return m.RecentlyPlayedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockMusicService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
	if m.AudioFeaturesFunc != nil {
		return m.AudioFeaturesFunc(ctx, trackIDs)
	}
	return map[string]models.AudioFeatures{}, nil
}

func (m *MockMusicService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*services.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, userID, name, description, public)
	}
	return &services.Playlist{ID: "mock-playlist", Name: name, Description: description, Public: public}, nil
}

func (m *MockMusicService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, uris)
	}
	return "mock-snapshot", nil
}

func (m *MockMusicService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, query, limit)
	}
	return nil, nil
}

// MockCompletionService is a test double for [services.CompletionService].
type MockCompletionService struct {
	CompleteFunc       func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteStreamFunc func(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error)
}

func (m *MockCompletionService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	return "", nil
}

func (m *MockCompletionService) CompleteStream(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
	if m.CompleteStreamFunc != nil {
		return m.CompleteStreamFunc(ctx, systemPrompt, userPrompt, onChunk)
	}
	return "", nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("expected error containing %q, got %q", substr, err.Error())
	}
}
