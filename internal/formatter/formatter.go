// package formatter renders profiles and narratives to various formats (plain text, Markdown, JSON)
package formatter

import (
	"bytes"
	"fmt"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
)

// ProfileToText renders a music profile as plain text for terminal output.
func ProfileToText(profile *models.UserMusicProfile) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks analyzed: %d\n", profile.TotalTracksAnalyzed))
	buf.WriteString(fmt.Sprintf("Generated: %s\n\n", profile.GeneratedAt.Format("2006-01-02 15:04")))

	features := profile.AverageAudioFeatures
	buf.WriteString("Average audio features:\n")
	buf.WriteString(fmt.Sprintf("  Energy:       %.2f\n", features.Energy))
	buf.WriteString(fmt.Sprintf("  Danceability: %.2f\n", features.Danceability))
	buf.WriteString(fmt.Sprintf("  Valence:      %.2f\n", features.Valence))
	buf.WriteString(fmt.Sprintf("  Acousticness: %.2f\n", features.Acousticness))
	buf.WriteString(fmt.Sprintf("  Tempo:        %.0f BPM\n\n", features.Tempo))

	if len(profile.TopArtists) > 0 {
		buf.WriteString("Top artists:\n")
		for i, artist := range profile.TopArtists {
			buf.WriteString(fmt.Sprintf("%2d. %s (%d tracks)\n", i+1, artist.Name, artist.Count))
		}
	}

	return buf.Bytes()
}

// ProfileToJSON renders a music profile as indented JSON.
func ProfileToJSON(profile *models.UserMusicProfile) ([]byte, error) {
	return shared.MarshalJSON(profile, true)
}

// NarrativeToText renders a playlist narrative as plain text.
func NarrativeToText(narrative *models.PlaylistNarrative) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", narrative.PlaylistName))
	buf.WriteString(fmt.Sprintf("Description: %s\n\n", narrative.PlaylistDescription))

	for i, rec := range narrative.SongRecommendations {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec.SearchQuery))
	}

	buf.WriteString("\n")
	buf.WriteString(narrative.OverallNarrative)
	buf.WriteString("\n")

	return buf.Bytes()
}

// NarrativeToMarkdown renders a playlist narrative as a Markdown document,
// including per-song reasoning and festive connections.
func NarrativeToMarkdown(narrative *models.PlaylistNarrative) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", narrative.PlaylistName))
	buf.WriteString(fmt.Sprintf("%s\n\n", narrative.PlaylistDescription))

	buf.WriteString("## Songs\n\n")
	for i, rec := range narrative.SongRecommendations {
		buf.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, rec.SearchQuery))
		buf.WriteString(fmt.Sprintf("   - %s\n", rec.Reasoning))
		buf.WriteString(fmt.Sprintf("   - %s\n", rec.FestiveConnection))
	}

	buf.WriteString("\n## Your Year in Music\n\n")
	buf.WriteString(narrative.OverallNarrative)
	buf.WriteString("\n")

	return buf.Bytes()
}

// NarrativeToJSON renders a playlist narrative as indented JSON.
func NarrativeToJSON(narrative *models.PlaylistNarrative) ([]byte, error) {
	return shared.MarshalJSON(narrative, true)
}
