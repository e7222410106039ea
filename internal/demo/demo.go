// Package demo provides canned profile and narrative data so the CLI can be
// exercised end to end without Spotify or Groq credentials.
package demo

import (
	_ "embed"
	"fmt"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
)

//go:embed profile.json
var profileData []byte

//go:embed narrative.json
var narrativeData []byte

// Profile returns the example music profile.
func Profile() (*models.UserMusicProfile, error) {
	var profile models.UserMusicProfile
	if err := shared.UnmarshalJSON(profileData, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse demo profile: %w", err)
	}
	return &profile, nil
}

// Narrative returns the example playlist narrative.
func Narrative() (*models.PlaylistNarrative, error) {
	var narrative models.PlaylistNarrative
	if err := shared.UnmarshalJSON(narrativeData, &narrative); err != nil {
		return nil, fmt.Errorf("failed to parse demo narrative: %w", err)
	}
	return &narrative, nil
}
