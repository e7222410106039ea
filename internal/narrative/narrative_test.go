package narrative

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
	tu "github.com/noelfm/sleighlist/internal/testing"
)

const validResponse = `{
	"playlistName": "Cozy Christmas Vibes",
	"playlistDescription": "A warm mix for the season.",
	"songRecommendations": [
		{"searchQuery": "Artist - Song", "reasoning": "Fits the vibe.", "festiveConnection": "Sleigh bells."}
	],
	"overallNarrative": "Your year in music was eclectic and warm."
}`

func testProfile() *models.UserMusicProfile {
	return &models.UserMusicProfile{
		AverageAudioFeatures: models.AudioFeatureSummary{
			Energy: 0.72, Danceability: 0.61, Valence: 0.55, Acousticness: 0.21, Tempo: 121.7,
		},
		TopArtists: []models.ArtistRank{
			{ID: "a1", Name: "Alpha", Count: 5},
			{ID: "a2", Name: "Beta", Count: 3},
		},
		TopGenres:           []models.GenreRank{},
		TotalTracksAnalyzed: 120,
	}
}

func TestExtractJSON(t *testing.T) {
	t.Run("Strips Surrounding Prose", func(t *testing.T) {
		content := "Here is your playlist!\n```json\n{\"a\": 1}\n```\nEnjoy!"
		raw, ok := ExtractJSON(content)
		if !ok {
			t.Fatal("expected extraction to succeed")
		}
		if raw != `{"a": 1}` {
			t.Errorf("extracted %q", raw)
		}
	})

	t.Run("No Braces Fails", func(t *testing.T) {
		if _, ok := ExtractJSON("no json here"); ok {
			t.Error("expected extraction to fail")
		}
	})
}

func TestParseNarrative(t *testing.T) {
	t.Run("Valid Response", func(t *testing.T) {
		narrative, err := ParseNarrative(validResponse)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if narrative.PlaylistName != "Cozy Christmas Vibes" {
			t.Errorf("PlaylistName = %q", narrative.PlaylistName)
		}
		if len(narrative.SongRecommendations) != 1 {
			t.Fatalf("recommendations = %d, want 1", len(narrative.SongRecommendations))
		}
		if narrative.SongRecommendations[0].SearchQuery != "Artist - Song" {
			t.Errorf("SearchQuery = %q", narrative.SongRecommendations[0].SearchQuery)
		}
	})

	t.Run("Prose Wrapped Response", func(t *testing.T) {
		wrapped := "Sure! Here is the playlist:\n" + validResponse + "\nHappy holidays!"
		if _, err := ParseNarrative(wrapped); err != nil {
			t.Errorf("expected prose-wrapped JSON to parse, got %v", err)
		}
	})

	t.Run("Missing Top Level Field", func(t *testing.T) {
		content := `{"playlistName": "X", "playlistDescription": "Y", "overallNarrative": "Z"}`
		_, err := ParseNarrative(content)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if !strings.Contains(err.Error(), "songRecommendations") {
			t.Errorf("error should name the gap: %v", err)
		}
	})

	t.Run("Recommendation Missing Field Rejects Wholesale", func(t *testing.T) {
		content := `{
			"playlistName": "X", "playlistDescription": "Y", "overallNarrative": "Z",
			"songRecommendations": [
				{"searchQuery": "A - B", "reasoning": "ok", "festiveConnection": "ok"},
				{"searchQuery": "C - D", "reasoning": "ok"}
			]
		}`
		_, err := ParseNarrative(content)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if !strings.Contains(err.Error(), "festiveConnection") {
			t.Errorf("error should name the gap: %v", err)
		}
	})

	t.Run("Coerces Scalar Leaves To Strings", func(t *testing.T) {
		content := `{
			"playlistName": 2025, "playlistDescription": true, "overallNarrative": "Z",
			"songRecommendations": [
				{"searchQuery": "A - B", "reasoning": 5, "festiveConnection": "ok"}
			]
		}`
		narrative, err := ParseNarrative(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if narrative.PlaylistName != "2025" || narrative.PlaylistDescription != "true" {
			t.Errorf("coercion failed: %q, %q", narrative.PlaylistName, narrative.PlaylistDescription)
		}
		if narrative.SongRecommendations[0].Reasoning != "5" {
			t.Errorf("reasoning = %q, want 5", narrative.SongRecommendations[0].Reasoning)
		}
	})

	t.Run("Not JSON", func(t *testing.T) {
		_, err := ParseNarrative("{this is not json}")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Empty Recommendations Rejected", func(t *testing.T) {
		content := `{"playlistName": "X", "playlistDescription": "Y", "overallNarrative": "Z", "songRecommendations": []}`
		_, err := ParseNarrative(content)
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestPrompts(t *testing.T) {
	t.Run("User Prompt Renders Profile", func(t *testing.T) {
		prompt := userPrompt(testProfile())
		for _, want := range []string{
			"TOP ARTISTS: Alpha, Beta",
			"TOP GENRES: Various genres",
			"Energy: 0.72",
			"Tempo: 122 BPM",
			"Total tracks analyzed: 120",
			"high energy",
			"ONLY the JSON object",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("Energy Labels", func(t *testing.T) {
		cases := []struct {
			energy float64
			want   string
		}{
			{0.8, "high energy"},
			{0.61, "high energy"},
			{0.5, "moderate energy"},
			{0.41, "moderate energy"},
			{0.4, "chill/relaxed"},
			{0.1, "chill/relaxed"},
		}
		for _, tc := range cases {
			if got := energyLabel(tc.energy); got != tc.want {
				t.Errorf("energyLabel(%v) = %q, want %q", tc.energy, got, tc.want)
			}
		}
	})

	t.Run("System Prompt States The Contract", func(t *testing.T) {
		prompt := systemPrompt()
		for _, want := range []string{"playlistName", "songRecommendations", "15-20", "Artist - Song Title"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("system prompt missing %q", want)
			}
		}
	})
}

func TestGenerator(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Generate Parses Model Output", func(t *testing.T) {
		completion := &tu.MockCompletionService{
			CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
				return "Here you go!\n" + validResponse, nil
			},
		}

		narrative, err := NewGenerator(completion, logger).Generate(context.Background(), testProfile())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if narrative.PlaylistName != "Cozy Christmas Vibes" {
			t.Errorf("PlaylistName = %q", narrative.PlaylistName)
		}
	})

	t.Run("Generate Propagates Completion Errors", func(t *testing.T) {
		completion := &tu.MockCompletionService{
			CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
				return "", errors.New("completion rejected")
			},
		}

		_, err := NewGenerator(completion, logger).Generate(context.Background(), testProfile())
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("GenerateStream Validates Accumulated Content", func(t *testing.T) {
		completion := &tu.MockCompletionService{
			CompleteStreamFunc: func(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
				half := len(validResponse) / 2
				onChunk(validResponse[:half])
				onChunk(validResponse[half:])
				return validResponse, nil
			},
		}

		var streamed strings.Builder
		narrative, err := NewGenerator(completion, logger).GenerateStream(context.Background(), testProfile(), func(c string) {
			streamed.WriteString(c)
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if streamed.String() != validResponse {
			t.Error("chunks should cover the full response")
		}
		if len(narrative.SongRecommendations) != 1 {
			t.Errorf("recommendations = %d, want 1", len(narrative.SongRecommendations))
		}
	})
}
