// Package profile builds a listening taste profile from a user's music
// service history.
//
// The analyzer fans out one fetch per history window plus recent plays,
// deduplicates the union, attaches audio features, and derives per-window
// averages and an artist frequency ranking. Profiles are computed fresh per
// request and never persisted.
package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/services"
)

const maxRankedArtists = 20

// Analyzer derives a [models.UserMusicProfile] from music service data.
type Analyzer struct {
	music  services.MusicService
	logger *log.Logger

	topTracksLimit      int
	recentlyPlayedLimit int
}

// NewAnalyzer creates an analyzer over the given music service.
func NewAnalyzer(music services.MusicService, logger *log.Logger) *Analyzer {
	return &Analyzer{
		music:               music,
		logger:              logger,
		topTracksLimit:      50,
		recentlyPlayedLimit: 50,
	}
}

// SetLimits overrides the per-window fetch sizes. Values outside the
// service's accepted range are clamped downstream.
func (a *Analyzer) SetLimits(topTracks, recentlyPlayed int) {
	if topTracks > 0 {
		a.topTracksLimit = topTracks
	}
	if recentlyPlayed > 0 {
		a.recentlyPlayedLimit = recentlyPlayed
	}
}

// BuildProfile fetches the user's listening history and derives the profile.
//
// The current-user probe runs first so an expired or revoked token fails
// fast before the fan-out. The four history fetches run concurrently; the
// first failure aborts the build.
func (a *Analyzer) BuildProfile(ctx context.Context) (*models.UserMusicProfile, error) {
	user, err := a.music.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify account before analysis: %w", err)
	}
	a.logger.Debug("building music profile", "user", user.ID)

	var (
		shortTerm, mediumTerm, longTerm, recent []models.Track
		wg                                      sync.WaitGroup
		mu                                      sync.Mutex
		firstErr                                error
	)

	fetch := func(run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}

	fetch(func() (err error) {
		shortTerm, err = a.music.TopTracks(ctx, services.TimeRangeShort, a.topTracksLimit)
		return err
	})
	fetch(func() (err error) {
		mediumTerm, err = a.music.TopTracks(ctx, services.TimeRangeMedium, a.topTracksLimit)
		return err
	})
	fetch(func() (err error) {
		longTerm, err = a.music.TopTracks(ctx, services.TimeRangeLong, a.topTracksLimit)
		return err
	})
	fetch(func() (err error) {
		recent, err = a.music.RecentlyPlayed(ctx, a.recentlyPlayedLimit)
		return err
	})

	wg.Wait()
	if firstErr != nil {
		return nil, fmt.Errorf("failed to fetch listening history: %w", firstErr)
	}

	unique := dedupeTracks(shortTerm, mediumTerm, longTerm, recent)

	ids := make([]string, 0, len(unique))
	for _, track := range unique {
		ids = append(ids, track.ID)
	}

	features, err := a.music.AudioFeatures(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio features: %w", err)
	}
	a.logger.Debug("fetched audio features", "tracks", len(unique), "features", len(features))

	profile := &models.UserMusicProfile{
		AverageAudioFeatures: summarizeFeatures(unique, features),
		TopGenres:            []models.GenreRank{}, // artist genre data is not exposed by the bulk endpoints
		TopArtists:           rankArtists(unique),
		ShortTerm: models.WindowPreference{
			TopTracks:       shortTerm,
			AverageFeatures: averageFeatures(shortTerm, features),
		},
		MediumTerm: models.WindowPreference{
			TopTracks:       mediumTerm,
			AverageFeatures: averageFeatures(mediumTerm, features),
		},
		LongTerm: models.WindowPreference{
			TopTracks:       longTerm,
			AverageFeatures: averageFeatures(longTerm, features),
		},
		RecentlyPlayed:      recent,
		TotalTracksAnalyzed: len(unique),
		GeneratedAt:         time.Now(),
	}

	return profile, nil
}

// dedupeTracks unions track lists preserving first occurrence order.
func dedupeTracks(lists ...[]models.Track) []models.Track {
	seen := make(map[string]bool)
	var unique []models.Track
	for _, list := range lists {
		for _, track := range list {
			if track.ID == "" || seen[track.ID] {
				continue
			}
			seen[track.ID] = true
			unique = append(unique, track)
		}
	}
	return unique
}

// averageFeatures computes per-dimension means over the tracks that have a
// feature record. Tracks without features are excluded from the denominator;
// the result has no keys when nothing matched.
func averageFeatures(tracks []models.Track, features map[string]models.AudioFeatures) models.FeatureAverages {
	averages := models.FeatureAverages{}

	sums := make(map[string]float64, len(models.FeatureDimensions))
	matched := 0
	for _, track := range tracks {
		af, ok := features[track.ID]
		if !ok {
			continue
		}
		matched++
		sums["danceability"] += af.Danceability
		sums["energy"] += af.Energy
		sums["valence"] += af.Valence
		sums["acousticness"] += af.Acousticness
		sums["instrumentalness"] += af.Instrumentalness
		sums["liveness"] += af.Liveness
		sums["speechiness"] += af.Speechiness
		sums["tempo"] += af.Tempo
	}

	if matched == 0 {
		return averages
	}
	for _, dim := range models.FeatureDimensions {
		averages[dim] = sums[dim] / float64(matched)
	}
	return averages
}

// summarizeFeatures computes the overall feature average across all analyzed
// tracks. Zeros when no track had features.
func summarizeFeatures(tracks []models.Track, features map[string]models.AudioFeatures) models.AudioFeatureSummary {
	averages := averageFeatures(tracks, features)
	return models.AudioFeatureSummary{
		Danceability:     averages["danceability"],
		Energy:           averages["energy"],
		Valence:          averages["valence"],
		Acousticness:     averages["acousticness"],
		Instrumentalness: averages["instrumentalness"],
		Liveness:         averages["liveness"],
		Speechiness:      averages["speechiness"],
		Tempo:            averages["tempo"],
	}
}

// rankArtists counts artist credits across the deduplicated tracks and
// returns the most frequent, capped at 20. Ties keep first-seen order.
func rankArtists(tracks []models.Track) []models.ArtistRank {
	counts := make(map[string]*models.ArtistRank)
	var order []string

	for _, track := range tracks {
		for _, artist := range track.Artists {
			if artist.ID == "" {
				continue
			}
			if rank, ok := counts[artist.ID]; ok {
				rank.Count++
				continue
			}
			counts[artist.ID] = &models.ArtistRank{ID: artist.ID, Name: artist.Name, Count: 1}
			order = append(order, artist.ID)
		}
	}

	ranked := make([]models.ArtistRank, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *counts[id])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > maxRankedArtists {
		ranked = ranked[:maxRankedArtists]
	}
	return ranked
}
