package models

import "time"

// Artist identifies a performing artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track represents a track from the music service. Immutable once fetched.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	URI        string   `json:"uri"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// AudioFeatures is the per-track numeric descriptor vector supplied by the
// music service's bulk analysis endpoint, keyed by track ID.
type AudioFeatures struct {
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

// FeatureAverages holds per-dimension arithmetic means for a track set.
//
// Empty (no keys) when no track in the set had a feature record, which is
// distinct from a set averaging to zero.
type FeatureAverages map[string]float64

// FeatureDimensions enumerates the averaged dimensions in canonical order.
var FeatureDimensions = []string{
	"danceability", "energy", "valence", "acousticness",
	"instrumentalness", "liveness", "speechiness", "tempo",
}

// AudioFeatureSummary is the overall feature average across all analyzed tracks.
// All dimensions are zero when no features were available.
type AudioFeatureSummary struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
}

// ArtistRank is one row of the ranked artist frequency table.
type ArtistRank struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GenreRank is one row of the ranked genre frequency table.
type GenreRank struct {
	Genre      string  `json:"genre"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// WindowPreference holds one listening-history window's top tracks and their
// average features.
type WindowPreference struct {
	TopTracks       []Track         `json:"topTracks"`
	AverageFeatures FeatureAverages `json:"averageFeatures"`
}

// UserMusicProfile is the aggregate taste profile derived from a user's
// listening history. Constructed fresh per request, never mutated afterwards.
type UserMusicProfile struct {
	AverageAudioFeatures AudioFeatureSummary `json:"averageAudioFeatures"`
	TopGenres            []GenreRank         `json:"topGenres"`
	TopArtists           []ArtistRank        `json:"topArtists"`
	ShortTerm            WindowPreference    `json:"shortTerm"`
	MediumTerm           WindowPreference    `json:"mediumTerm"`
	LongTerm             WindowPreference    `json:"longTerm"`
	RecentlyPlayed       []Track             `json:"recentlyPlayed"`
	TotalTracksAnalyzed  int                 `json:"totalTracksAnalyzed"`
	GeneratedAt          time.Time           `json:"generatedAt"`
}
