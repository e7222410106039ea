package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "sleighlist.db" {
			t.Errorf("expected database path sleighlist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.Groq.Model != "llama3-8b-8192" {
			t.Errorf("expected default model llama3-8b-8192, got %s", config.Credentials.Groq.Model)
		}

		if config.Limits.GenerationPerMinute != 10 {
			t.Errorf("expected generation limit 10, got %d", config.Limits.GenerationPerMinute)
		}

		if config.Limits.MusicPerMinute != 50 {
			t.Errorf("expected music limit 50, got %d", config.Limits.MusicPerMinute)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 9090

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9090/callback"

[credentials.groq]
api_key = "gsk_test"
model = "llama3-70b-8192"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Groq.Model != "llama3-70b-8192" {
			t.Errorf("expected model llama3-70b-8192, got %s", config.Credentials.Groq.Model)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "saved-access"
		config.Credentials.Spotify.RefreshToken = "saved-refresh"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Spotify.AccessToken != "saved-access" {
			t.Errorf("expected saved access token, got %s", loaded.Credentials.Spotify.AccessToken)
		}
		if loaded.Credentials.Spotify.RefreshToken != "saved-refresh" {
			t.Errorf("expected saved refresh token, got %s", loaded.Credentials.Spotify.RefreshToken)
		}
	})
}

func TestSpotifyConfigToken(t *testing.T) {
	t.Run("empty access token yields nil", func(t *testing.T) {
		s := SpotifyConfig{}
		if s.Token() != nil {
			t.Error("expected nil token when no access token is stored")
		}
	})

	t.Run("stored pair converts to oauth2 token", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour).Unix()
		s := SpotifyConfig{AccessToken: "at", RefreshToken: "rt", ExpiresAt: expiry}

		token := s.Token()
		if token == nil {
			t.Fatal("expected token")
		}
		if token.AccessToken != "at" || token.RefreshToken != "rt" {
			t.Errorf("unexpected token pair: %s / %s", token.AccessToken, token.RefreshToken)
		}
		if token.Expiry.Unix() != expiry {
			t.Errorf("expected expiry %d, got %d", expiry, token.Expiry.Unix())
		}
	})
}

func TestSpotifyConfigUpdate(t *testing.T) {
	t.Run("stores new pair", func(t *testing.T) {
		s := SpotifyConfig{AccessToken: "old-at", RefreshToken: "old-rt"}
		token := &oauth2.Token{AccessToken: "new-at", RefreshToken: "new-rt", Expiry: time.Now().Add(time.Hour)}

		if err := s.Update(token); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.AccessToken != "new-at" || s.RefreshToken != "new-rt" {
			t.Errorf("unexpected pair: %s / %s", s.AccessToken, s.RefreshToken)
		}
		if s.ExpiresAt == 0 {
			t.Error("expected expiry to be recorded")
		}
	})

	t.Run("retains refresh token when new one is absent", func(t *testing.T) {
		s := SpotifyConfig{AccessToken: "old-at", RefreshToken: "old-rt"}

		if err := s.Update(&oauth2.Token{AccessToken: "new-at"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.RefreshToken != "old-rt" {
			t.Errorf("expected refresh token to be retained, got %s", s.RefreshToken)
		}
	})

	t.Run("rejects empty token", func(t *testing.T) {
		s := SpotifyConfig{}
		if err := s.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
		if err := s.Update(&oauth2.Token{}); err == nil {
			t.Error("expected error for token without access token")
		}
	})
}
