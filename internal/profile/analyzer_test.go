package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/services"
	"github.com/noelfm/sleighlist/internal/shared"
	tu "github.com/noelfm/sleighlist/internal/testing"
)

func track(id, name string, artists ...models.Artist) models.Track {
	return models.Track{ID: id, Name: name, Artists: artists, URI: "spotify:track:" + id}
}

func artist(id, name string) models.Artist {
	return models.Artist{ID: id, Name: name}
}

func newTestAnalyzer(music services.MusicService) *Analyzer {
	return NewAnalyzer(music, shared.NewLogger(io.Discard))
}

func TestBuildProfile(t *testing.T) {
	t.Run("Aborts When Account Probe Fails", func(t *testing.T) {
		var historyFetches int
		mock := &tu.MockMusicService{
			CurrentUserFunc: func(ctx context.Context) (*services.User, error) {
				return nil, shared.ErrAuthentication
			},
			TopTracksFunc: func(ctx context.Context, timeRange services.TimeRange, limit int) ([]models.Track, error) {
				historyFetches++
				return nil, nil
			},
		}

		_, err := newTestAnalyzer(mock).BuildProfile(context.Background())
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
		if historyFetches != 0 {
			t.Errorf("history fetches = %d, want 0 when probe fails", historyFetches)
		}
	})

	t.Run("Counts Distinct Tracks Across Windows", func(t *testing.T) {
		overlap := track("shared", "Shared Song", artist("a1", "Artist One"))
		mock := &tu.MockMusicService{
			TopTracksFunc: func(ctx context.Context, timeRange services.TimeRange, limit int) ([]models.Track, error) {
				switch timeRange {
				case services.TimeRangeShort:
					return []models.Track{overlap, track("s1", "Short", artist("a1", "Artist One"))}, nil
				case services.TimeRangeMedium:
					return []models.Track{overlap, track("m1", "Medium", artist("a2", "Artist Two"))}, nil
				default:
					return []models.Track{track("l1", "Long", artist("a2", "Artist Two"))}, nil
				}
			},
			RecentlyPlayedFunc: func(ctx context.Context, limit int) ([]models.Track, error) {
				return []models.Track{overlap}, nil
			},
		}

		profile, err := newTestAnalyzer(mock).BuildProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.TotalTracksAnalyzed != 4 {
			t.Errorf("TotalTracksAnalyzed = %d, want 4 distinct tracks", profile.TotalTracksAnalyzed)
		}
		if len(profile.RecentlyPlayed) != 1 {
			t.Errorf("RecentlyPlayed = %d, want the window kept verbatim", len(profile.RecentlyPlayed))
		}
	})

	t.Run("First Fetch Error Wins", func(t *testing.T) {
		mock := &tu.MockMusicService{
			TopTracksFunc: func(ctx context.Context, timeRange services.TimeRange, limit int) ([]models.Track, error) {
				if timeRange == services.TimeRangeMedium {
					return nil, fmt.Errorf("%w (status 429): retry after 10 seconds", shared.ErrRateLimited)
				}
				return nil, nil
			},
		}

		_, err := newTestAnalyzer(mock).BuildProfile(context.Background())
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("Genre Table Is Always Empty", func(t *testing.T) {
		mock := &tu.MockMusicService{}
		profile, err := newTestAnalyzer(mock).BuildProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.TopGenres == nil || len(profile.TopGenres) != 0 {
			t.Errorf("TopGenres = %v, want empty non-nil slice", profile.TopGenres)
		}
	})
}

func TestAverageFeatures(t *testing.T) {
	t.Run("Excludes Tracks Without Features", func(t *testing.T) {
		tracks := []models.Track{track("t1", "One"), track("t2", "Two"), track("t3", "Three")}
		features := map[string]models.AudioFeatures{
			"t1": {ID: "t1", Energy: 0.2, Tempo: 100},
			"t3": {ID: "t3", Energy: 0.8, Tempo: 140},
		}

		averages := averageFeatures(tracks, features)
		if got := averages["energy"]; got != 0.5 {
			t.Errorf("energy = %v, want 0.5 over 2 matched tracks", got)
		}
		if got := averages["tempo"]; got != 120 {
			t.Errorf("tempo = %v, want 120", got)
		}
	})

	t.Run("No Matches Yields No Keys", func(t *testing.T) {
		tracks := []models.Track{track("t1", "One")}
		averages := averageFeatures(tracks, map[string]models.AudioFeatures{})
		if len(averages) != 0 {
			t.Errorf("averages = %v, want no dimension keys", averages)
		}
	})

	t.Run("Summary Is Zeros When Empty", func(t *testing.T) {
		summary := summarizeFeatures(nil, nil)
		if summary.Energy != 0 || summary.Tempo != 0 {
			t.Errorf("summary = %+v, want zero values", summary)
		}
	})
}

func TestRankArtists(t *testing.T) {
	t.Run("Counts Every Credit And Sorts Descending", func(t *testing.T) {
		tracks := []models.Track{
			track("t1", "One", artist("a1", "Alpha"), artist("a2", "Beta")),
			track("t2", "Two", artist("a2", "Beta")),
			track("t3", "Three", artist("a2", "Beta"), artist("a3", "Gamma")),
		}

		ranked := rankArtists(tracks)
		if len(ranked) != 3 {
			t.Fatalf("ranked = %d artists, want 3", len(ranked))
		}
		if ranked[0].ID != "a2" || ranked[0].Count != 3 {
			t.Errorf("top artist = %+v, want Beta with 3 credits", ranked[0])
		}
	})

	t.Run("Ties Keep First Seen Order", func(t *testing.T) {
		tracks := []models.Track{
			track("t1", "One", artist("a1", "Alpha")),
			track("t2", "Two", artist("a2", "Beta")),
		}

		ranked := rankArtists(tracks)
		if ranked[0].ID != "a1" || ranked[1].ID != "a2" {
			t.Errorf("tie order = [%s %s], want [a1 a2]", ranked[0].ID, ranked[1].ID)
		}
	})

	t.Run("Caps At Twenty", func(t *testing.T) {
		var tracks []models.Track
		for i := 0; i < 30; i++ {
			id := fmt.Sprintf("a%d", i)
			tracks = append(tracks, track(fmt.Sprintf("t%d", i), "Song", artist(id, "Artist "+id)))
		}

		if got := len(rankArtists(tracks)); got != 20 {
			t.Errorf("ranked = %d artists, want cap of 20", got)
		}
	})
}
