package main

import (
	"context"
	"errors"
	"os"

	"github.com/noelfm/sleighlist/internal/repositories"
	"github.com/noelfm/sleighlist/internal/services"
	"github.com/noelfm/sleighlist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := "config.toml"
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	var music services.MusicService
	var completion services.CompletionService
	var credentials *repositories.CredentialRepository

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			svc.OnTokenRefresh(func(token *oauth2.Token) {
				if err := config.Credentials.Spotify.Update(token); err != nil {
					return
				}
				if err := shared.SaveConfig(configPath, config); err != nil {
					logger.Warn("failed to persist refreshed token", "error", err)
				}
			})
			music = svc
		}
	}

	if config.Credentials.Groq.APIKey != "" {
		if svc, err := services.NewGroqService(config.Credentials.Groq); err == nil {
			completion = svc
		}
	}

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		credentials = repositories.NewCredentialRepository(db)
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		ConfigPath:  configPath,
		Music:       music,
		Completion:  completion,
		Credentials: credentials,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "sleighlist",
		Usage:    "Generate a festive playlist from your year of listening",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
