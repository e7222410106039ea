// Package narrative turns a music taste profile into a festive playlist
// story using a chat completion model.
//
// The model is steered toward a strict JSON contract; its output is
// extracted, parsed, and validated wholesale. A response missing any field
// is rejected rather than patched.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/services"
)

// Generator produces playlist narratives from taste profiles.
type Generator struct {
	completion services.CompletionService
	logger     *log.Logger
}

// NewGenerator creates a generator over the given completion service.
func NewGenerator(completion services.CompletionService, logger *log.Logger) *Generator {
	return &Generator{completion: completion, logger: logger}
}

// Generate requests a narrative for the profile and returns the validated
// result.
func (g *Generator) Generate(ctx context.Context, profile *models.UserMusicProfile) (*models.PlaylistNarrative, error) {
	content, err := g.completion.Complete(ctx, systemPrompt(), userPrompt(profile))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("no content received from completion service")
	}

	narrative, err := ParseNarrative(content)
	if err != nil {
		g.logger.Debug("rejected model output", "length", len(content))
		return nil, err
	}
	return narrative, nil
}

// GenerateStream is Generate with incremental delivery: onChunk receives
// raw model text as it arrives, and the validated narrative is built from
// the accumulated content once the stream ends.
func (g *Generator) GenerateStream(ctx context.Context, profile *models.UserMusicProfile, onChunk func(string)) (*models.PlaylistNarrative, error) {
	content, err := g.completion.CompleteStream(ctx, systemPrompt(), userPrompt(profile), onChunk)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("no content received from completion service")
	}

	return ParseNarrative(content)
}

// systemPrompt frames the model as a holiday curator bound to a JSON contract.
func systemPrompt() string {
	return `You are a festive music curator creating a personalized Christmas/holiday playlist.
Your role is to analyze a user's music taste and suggest songs that blend their personal preferences with holiday spirit.
Be warm, creative, and personal in your recommendations.

You must respond with a valid JSON object in this exact format:
{
  "playlistName": "A creative, festive playlist name (max 100 characters)",
  "playlistDescription": "A warm, personal description (2-3 sentences) explaining the playlist theme",
  "songRecommendations": [
    {
      "searchQuery": "Artist Name - Song Title (exact format for track search)",
      "reasoning": "Why this song fits their taste (1-2 sentences)",
      "festiveConnection": "How it relates to holidays/Christmas (1-2 sentences)"
    }
  ],
  "overallNarrative": "2-3 paragraphs about their year in music, referencing specific artists/genres they love, their energy levels, and listening patterns. Be warm and personal."
}

Requirements:
- Generate 15-20 song recommendations
- Each searchQuery should be in format "Artist - Song Title" optimized for track search
- Blend their favorite genres with festive/holiday themes
- Reference specific artists and genres from their profile
- Be creative with playlist names (e.g., "Cozy Christmas Vibes for [Genre] Lovers")
- Make the narrative personal and warm
- Ensure all JSON is valid and properly formatted`
}

// userPrompt renders the profile into the analysis request.
func userPrompt(profile *models.UserMusicProfile) string {
	topArtists := joinNames(profile.TopArtists, 10)
	topGenres := joinGenres(profile.TopGenres, 10)

	artistsLabel := topArtists
	if artistsLabel == "" {
		artistsLabel = "Various artists"
	}
	genresLabel := topGenres
	if genresLabel == "" {
		genresLabel = "Various genres"
	}

	genresHint := topGenres
	if genresHint == "" {
		genresHint = "their preferred styles"
	}
	artistsHint := topArtists
	if artistsHint == "" {
		artistsHint = "their favorite artists"
	}

	features := profile.AverageAudioFeatures

	return fmt.Sprintf(`Analyze this user's music profile and create a festive playlist:

TOP ARTISTS: %s

TOP GENRES: %s

AUDIO FEATURES:
- Energy: %.2f (0-1 scale)
- Danceability: %.2f (0-1 scale)
- Valence (positivity): %.2f (0-1 scale)
- Acousticness: %.2f (0-1 scale)
- Tempo: %.0f BPM

LISTENING PATTERNS:
- Short-term favorites: %d tracks
- Medium-term favorites: %d tracks
- Long-term favorites: %d tracks
- Recently played: %d tracks
- Total tracks analyzed: %d

Create a personalized festive playlist that:
1. Blends their favorite genres (%s) with holiday spirit
2. Matches their energy level (%s)
3. References their top artists (%s)
4. Includes both classic holiday songs and modern tracks that fit their taste
5. Creates a warm, personal narrative about their musical year

Respond with ONLY the JSON object, no additional text.`,
		artistsLabel,
		genresLabel,
		features.Energy,
		features.Danceability,
		features.Valence,
		features.Acousticness,
		features.Tempo,
		len(profile.ShortTerm.TopTracks),
		len(profile.MediumTerm.TopTracks),
		len(profile.LongTerm.TopTracks),
		len(profile.RecentlyPlayed),
		profile.TotalTracksAnalyzed,
		genresHint,
		energyLabel(features.Energy),
		artistsHint,
	)
}

// energyLabel buckets the 0-1 energy average into a descriptive phrase.
func energyLabel(energy float64) string {
	switch {
	case energy > 0.6:
		return "high energy"
	case energy > 0.4:
		return "moderate energy"
	default:
		return "chill/relaxed"
	}
}

func joinNames(artists []models.ArtistRank, max int) string {
	var names []string
	for i, artist := range artists {
		if i >= max {
			break
		}
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

func joinGenres(genres []models.GenreRank, max int) string {
	var names []string
	for i, genre := range genres {
		if i >= max {
			break
		}
		names = append(names, genre.Genre)
	}
	return strings.Join(names, ", ")
}
