// Spotify API implementation of [MusicService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyChunkSize is the API ceiling for bulk audio-features lookups and
	// playlist track additions.
	spotifyChunkSize = 100

	// spotifyMaxLimit is the API ceiling for paginated list endpoints.
	spotifyMaxLimit = 50
)

// spotifyScopes covers reading listening history and creating playlists.
var spotifyScopes = []string{
	"user-top-read",
	"user-read-recently-played",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-email",
	"user-read-private",
}

type followers struct {
	Total int `json:"total"`
}

// spotifyUser represents a Spotify user profile.
type spotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// spotifyArtist represents a Spotify artist.
type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// spotifyTrack represents a Spotify track.
type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// spotifyAudioFeatures represents a track's audio analysis summary.
type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
}

// spotifyPlaylist represents a Spotify playlist.
type spotifyPlaylist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Public       bool   `json:"public"`
	SnapshotID   string `json:"snapshot_id"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [MusicService] for the Spotify Web API.
// Uses [oauth2] for authentication with transparent refresh-and-replay on 401.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	pacer      *rate.Limiter

	// tokenMu guards token; refreshes are single-flight so concurrent 401s
	// trade the refresh token exactly once.
	tokenMu sync.Mutex
	token   *oauth2.Token

	// onTokenRefresh, when set, receives every freshly issued token so the
	// caller can persist it.
	onTokenRefresh func(*oauth2.Token)

	baseURL  string
	tokenURL string
}

// NewSpotifyService creates a Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	svc := &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		pacer:      rate.NewLimiter(rate.Limit(10), 2), // bulk chunk pacing
		baseURL:    spotifyBaseURL,
		tokenURL:   spotifyTokenURL,
	}

	if accessToken := credentials["access_token"]; accessToken != "" {
		svc.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
	} else if refreshToken := credentials["refresh_token"]; refreshToken != "" {
		svc.token = &oauth2.Token{RefreshToken: refreshToken, TokenType: "Bearer"}
	}

	return svc, nil
}

// SetHTTPClient replaces the HTTP client used for API and token requests.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.httpClient = client
	}
}

// SetToken replaces the current token pair.
func (s *SpotifyService) SetToken(token *oauth2.Token) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	s.token = token
}

// OnTokenRefresh registers a hook invoked with every freshly issued token.
func (s *SpotifyService) OnTokenRefresh(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for a token pair and adopts it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	s.SetToken(token)
	return token, nil
}

// accessToken returns the current bearer token value.
func (s *SpotifyService) accessToken() string {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// refreshAccessToken trades the refresh token for a new access token.
//
// stale is the bearer value the caller saw fail; if another caller already
// refreshed past it, the refresh is skipped and the newer token is used.
func (s *SpotifyService) refreshAccessToken(ctx context.Context, stale string) error {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	if s.token == nil || s.token.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}
	if s.token.AccessToken != stale {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.token.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w (status %d): %s", shared.ErrRefreshFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: failed to decode token response: %v", shared.ErrRefreshFailed, err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access_token", shared.ErrRefreshFailed)
	}

	token := &oauth2.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: s.token.RefreshToken, // retained unless rotated
		TokenType:    "Bearer",
	}
	if payload.RefreshToken != "" {
		token.RefreshToken = payload.RefreshToken
	}
	s.token = token

	if s.onTokenRefresh != nil {
		s.onTokenRefresh(token)
	}

	return nil
}

// doRequest performs an authenticated request with refresh-and-replay on 401.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	token := s.accessToken()
	if token == "" {
		if err := s.refreshAccessToken(ctx, ""); err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}
		token = s.accessToken()
	}

	resp, err := s.send(ctx, method, endpoint, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := s.refreshAccessToken(ctx, token); err != nil {
			return err
		}
		resp, err = s.send(ctx, method, endpoint, body, s.accessToken())
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return fmt.Errorf("%w (status 401): token rejected after refresh, run auth login again", shared.ErrAuthentication)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// send issues a single request attempt with the given bearer token.
func (s *SpotifyService) send(ctx context.Context, method, endpoint string, body any, token string) (*http.Response, error) {
	apiURL := s.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	return resp, nil
}

// apiError converts a non-2xx response into a typed error carrying a
// "(status NNN)" marker.
func (s *SpotifyService) apiError(resp *http.Response) error {
	var parsed spotifyErrorBody
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w (status 403): %s; re-run auth login to grant updated permissions", shared.ErrAuthorization, message)
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter == "" {
			retryAfter = "a few"
		}
		return fmt.Errorf("%w (status 429): retry after %s seconds", shared.ErrRateLimited, retryAfter)
	default:
		return fmt.Errorf("%w (status %d): %s", shared.ErrTransport, resp.StatusCode, message)
	}
}

// clampLimit restricts a page size to the API's [1, 50] bounds.
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > spotifyMaxLimit {
		return spotifyMaxLimit
	}
	return limit
}

// chunkIDs splits ids into batches of at most size.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// toTrack converts a wire track to the domain model.
func toTrack(st spotifyTrack) models.Track {
	track := models.Track{
		ID:         st.ID,
		Name:       st.Name,
		URI:        st.URI,
		DurationMS: st.DurationMS,
	}
	for _, artist := range st.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: artist.ID, Name: artist.Name})
	}
	return track
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Product:     user.Product,
	}, nil
}

// TopTracks retrieves the user's most played tracks for a time range.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d", timeRange, clampLimit(limit))

	var response struct {
		Items []spotifyTrack `json:"items"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		tracks = append(tracks, toTrack(item))
	}
	return tracks, nil
}

// RecentlyPlayed retrieves the user's recent listening history.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", clampLimit(limit))

	var response struct {
		Items []struct {
			Track    spotifyTrack `json:"track"`
			PlayedAt string       `json:"played_at"`
		} `json:"items"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		tracks = append(tracks, toTrack(item.Track))
	}
	return tracks, nil
}

// AudioFeatures retrieves feature vectors for the given track IDs in chunks
// of up to 100. Tracks the API has no analysis for come back as JSON nulls
// and are dropped.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
	features := make(map[string]models.AudioFeatures, len(trackIDs))

	for _, chunk := range chunkIDs(trackIDs, spotifyChunkSize) {
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}

		endpoint := "/audio-features?ids=" + url.QueryEscape(strings.Join(chunk, ","))

		var response struct {
			AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
		}
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, af := range response.AudioFeatures {
			if af == nil || af.ID == "" {
				continue
			}
			features[af.ID] = models.AudioFeatures{
				ID:               af.ID,
				Danceability:     af.Danceability,
				Energy:           af.Energy,
				Valence:          af.Valence,
				Acousticness:     af.Acousticness,
				Instrumentalness: af.Instrumentalness,
				Liveness:         af.Liveness,
				Speechiness:      af.Speechiness,
				Tempo:            af.Tempo,
			}
		}
	}

	return features, nil
}

// CreatePlaylist creates an empty playlist owned by the given user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID", shared.ErrMissingArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist spotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}

	return &Playlist{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Public:      playlist.Public,
		URL:         playlist.ExternalURLs.Spotify,
		SnapshotID:  playlist.SnapshotID,
	}, nil
}

// AddTracks appends track URIs to a playlist in chunks of up to 100 and
// returns the snapshot ID after the final addition.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: no track URIs to add", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var snapshotID string
	for _, chunk := range chunkIDs(uris, spotifyChunkSize) {
		if err := s.pacer.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}

		var response struct {
			SnapshotID string `json:"snapshot_id"`
		}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": chunk}, &response); err != nil {
			return "", err
		}
		snapshotID = response.SnapshotID
	}

	return snapshotID, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), clampLimit(limit))

	var response struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, toTrack(item))
	}
	return tracks, nil
}
