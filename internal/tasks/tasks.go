// package tasks orchestrates the festive playlist pipeline.
//
// The core abstraction is SleighEngine, which sequences profile analysis,
// narrative generation, and playlist materialization. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI
// layers. Per-user rate limits guard the expensive upstream calls.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/narrative"
	"github.com/noelfm/sleighlist/internal/profile"
	"github.com/noelfm/sleighlist/internal/ratelimit"
	"github.com/noelfm/sleighlist/internal/services"
	"github.com/noelfm/sleighlist/internal/shared"
)

// TrackMatchResult records the outcome of resolving one recommendation
// against the music catalog.
type TrackMatchResult struct {
	Recommendation models.SongRecommendation // Original suggestion
	Matched        *models.Track             // First search hit (nil when not found)
}

// MaterializeResult contains all data from turning a narrative into a real
// playlist.
type MaterializeResult struct {
	Playlist        *services.Playlist // Created playlist
	SnapshotID      string             // Snapshot after the final track addition
	TrackMatches    []TrackMatchResult // Per-recommendation resolution results
	AddedCount      int                // Tracks actually added
	MissedCount     int                // Recommendations without a catalog hit
	MatchPercentage float64            // Resolution rate as percentage
}

// RunResult contains all data from a full profile → narrative → playlist run.
type RunResult struct {
	Profile      *models.UserMusicProfile
	Narrative    *models.PlaylistNarrative
	Materialized *MaterializeResult // nil when playlist creation was skipped
}

// SleighEngine sequences the playlist generation pipeline over injected
// services.
type SleighEngine struct {
	music     services.MusicService
	analyzer  *profile.Analyzer
	generator *narrative.Generator

	musicLimiter *ratelimit.Limiter
	genLimiter   *ratelimit.Limiter

	logger *log.Logger
}

// NewSleighEngine creates an engine over the given dependencies.
func NewSleighEngine(
	music services.MusicService,
	analyzer *profile.Analyzer,
	generator *narrative.Generator,
	musicLimiter, genLimiter *ratelimit.Limiter,
	logger *log.Logger,
) *SleighEngine {
	return &SleighEngine{
		music:        music,
		analyzer:     analyzer,
		generator:    generator,
		musicLimiter: musicLimiter,
		genLimiter:   genLimiter,
		logger:       logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SleighEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// checkLimit consumes one request from the limiter for the identifier,
// converting denial into a rate-limit error carrying the reset hint.
func (e *SleighEngine) checkLimit(limiter *ratelimit.Limiter, identifier, operation string) error {
	if limiter == nil {
		return nil
	}
	if limiter.Allow(identifier) {
		return nil
	}
	reset := limiter.TimeUntilReset(identifier)
	return fmt.Errorf("%w: %s quota exhausted, try again in %s", shared.ErrRateLimited, operation, reset.Round(time.Second))
}

// BuildProfile analyzes the user's listening history, subject to the music
// service quota for the identifier.
func (e *SleighEngine) BuildProfile(ctx context.Context, progress chan<- ProgressUpdate, identifier string) (*models.UserMusicProfile, error) {
	if e.analyzer == nil {
		return nil, fmt.Errorf("%w: profile analyzer not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.checkLimit(e.musicLimiter, identifier, "music analysis"); err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildProfileUpdate(1, 2))

	userProfile, err := e.analyzer.BuildProfile(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, profileReadyUpdate(2, 2, userProfile.TotalTracksAnalyzed))
	e.logger.Info("profile built", "tracks", userProfile.TotalTracksAnalyzed, "artists", len(userProfile.TopArtists))
	return userProfile, nil
}

// GenerateNarrative produces a playlist narrative for the profile, subject to
// the generation quota for the identifier. When onChunk is non-nil the model
// output is streamed through it.
func (e *SleighEngine) GenerateNarrative(ctx context.Context, progress chan<- ProgressUpdate, identifier string, userProfile *models.UserMusicProfile, onChunk func(string)) (*models.PlaylistNarrative, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("%w: narrative generator not initialized", shared.ErrServiceUnavailable)
	}
	if userProfile == nil {
		return nil, fmt.Errorf("%w: profile", shared.ErrMissingArgument)
	}
	if err := e.checkLimit(e.genLimiter, identifier, "narrative generation"); err != nil {
		return nil, err
	}

	e.sendProgress(progress, generateNarrativeUpdate(1, 1))

	if onChunk != nil {
		return e.generator.GenerateStream(ctx, userProfile, onChunk)
	}
	return e.generator.Generate(ctx, userProfile)
}

// MaterializePlaylist resolves each recommendation against the catalog,
// creates the playlist, and adds every matched track.
//
// Unresolvable recommendations are tolerated and reported; a narrative whose
// recommendations all miss is an error before any playlist is created.
func (e *SleighEngine) MaterializePlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistNarrative *models.PlaylistNarrative, public bool) (*MaterializeResult, error) {
	if e.music == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	if playlistNarrative == nil || len(playlistNarrative.SongRecommendations) == 0 {
		return nil, fmt.Errorf("%w: narrative has no recommendations", shared.ErrInvalidArgument)
	}

	user, err := e.music.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist owner: %w", err)
	}

	result := &MaterializeResult{}
	total := len(playlistNarrative.SongRecommendations)
	var uris []string

	for i, rec := range playlistNarrative.SongRecommendations {
		e.sendProgress(progress, searchTrackUpdate(i+1, total, rec.SearchQuery))

		match := TrackMatchResult{Recommendation: rec}
		tracks, err := e.music.SearchTracks(ctx, rec.SearchQuery, 1)
		if err != nil {
			return nil, fmt.Errorf("search failed for %q: %w", rec.SearchQuery, err)
		}
		if len(tracks) > 0 && tracks[0].URI != "" {
			track := tracks[0]
			match.Matched = &track
			uris = append(uris, track.URI)
		} else {
			e.logger.Warn("no catalog match", "query", rec.SearchQuery)
			result.MissedCount++
		}
		result.TrackMatches = append(result.TrackMatches, match)
	}

	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: none of the %d recommendations matched the catalog", shared.ErrValidation, total)
	}

	e.sendProgress(progress, createPlaylistUpdate(1, 2, playlistNarrative.PlaylistName))
	playlist, err := e.music.CreatePlaylist(ctx, user.ID, playlistNarrative.PlaylistName, playlistNarrative.PlaylistDescription, public)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	e.sendProgress(progress, addTracksUpdate(2, 2, len(uris)))
	snapshotID, err := e.music.AddTracks(ctx, playlist.ID, uris)
	if err != nil {
		return nil, fmt.Errorf("failed to add tracks: %w", err)
	}

	result.Playlist = playlist
	result.SnapshotID = snapshotID
	result.AddedCount = len(uris)
	result.MatchPercentage = float64(result.AddedCount) / float64(total) * 100

	e.logger.Info("playlist created", "id", playlist.ID, "added", result.AddedCount, "missed", result.MissedCount)
	return result, nil
}

// Run executes the full pipeline: profile, narrative, and (unless skipped)
// the materialized playlist.
func (e *SleighEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, identifier string, public, skipPlaylist bool, onChunk func(string)) (*RunResult, error) {
	userProfile, err := e.BuildProfile(ctx, progress, identifier)
	if err != nil {
		return nil, err
	}

	playlistNarrative, err := e.GenerateNarrative(ctx, progress, identifier, userProfile, onChunk)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Profile: userProfile, Narrative: playlistNarrative}
	if skipPlaylist {
		return result, nil
	}

	materialized, err := e.MaterializePlaylist(ctx, progress, playlistNarrative, public)
	if err != nil {
		return nil, err
	}
	result.Materialized = materialized

	return result, nil
}
