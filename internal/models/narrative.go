package models

// SongRecommendation is a single suggested track in a generated narrative.
type SongRecommendation struct {
	SearchQuery       string `json:"searchQuery"`       // "Artist - Title", optimized for track search
	Reasoning         string `json:"reasoning"`         // why this song fits the user's taste
	FestiveConnection string `json:"festiveConnection"` // how it relates to the holidays
}

// PlaylistNarrative is the generative model's structured output: playlist
// metadata, song suggestions with justifications, and a prose summary of the
// user's listening year.
//
// Constructed only after successful validation of model output; a
// partially-valid response is rejected wholesale.
type PlaylistNarrative struct {
	PlaylistName        string               `json:"playlistName"`
	PlaylistDescription string               `json:"playlistDescription"`
	SongRecommendations []SongRecommendation `json:"songRecommendations"`
	OverallNarrative    string               `json:"overallNarrative"`
}
