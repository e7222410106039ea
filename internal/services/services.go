// package services defines interfaces for the outbound API clients
//
// Spotify (listening history, playlists), Groq (narrative generation)
package services

import (
	"context"

	"github.com/noelfm/sleighlist/internal/models"
	"golang.org/x/oauth2"
)

// TimeRange selects a listening-history window for top-track queries.
type TimeRange string

const (
	TimeRangeShort  TimeRange = "short_term"  // roughly the last 4 weeks
	TimeRangeMedium TimeRange = "medium_term" // roughly the last 6 months
	TimeRangeLong   TimeRange = "long_term"   // several years
)

// MusicService defines the music provider operations the playlist pipeline
// depends on.
type MusicService interface {
	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// TopTracks retrieves the user's most played tracks for a time range.
	// Limits outside [1, 50] are clamped.
	TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]models.Track, error)

	// RecentlyPlayed retrieves the user's recent listening history.
	// Limits outside [1, 50] are clamped.
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error)

	// AudioFeatures retrieves feature vectors for the given track IDs, keyed
	// by track ID. Tracks without analysis data are absent from the result.
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error)

	// CreatePlaylist creates an empty playlist owned by the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error)

	// AddTracks appends track URIs to a playlist and returns the final
	// snapshot ID. An empty URI list is an error.
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)

	// SearchTracks searches the catalog for tracks matching the query.
	// Limits outside [1, 50] are clamped.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// CompletionService defines the generative model operations used to produce
// playlist narratives.
type CompletionService interface {
	// Complete sends a system/user prompt pair and returns the model's text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteStream is Complete with incremental delivery: onChunk receives
	// each content fragment as it arrives, and the full text is returned once
	// the stream ends.
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error)
}

// OAuthService extends MusicService for providers using server-side OAuth flows.
type OAuthService interface {
	MusicService

	// GetAuthURL returns the provider's authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the underlying OAuth2 configuration.
	GetOAuthConfig() *oauth2.Config

	// Exchange trades an authorization code for a token pair.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// User represents an authenticated music service account.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Product     string // premium, free, etc.
}

// Playlist represents a playlist created on the music service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Public      bool
	URL         string
	SnapshotID  string
}
