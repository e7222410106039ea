package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	VerifyAccount Phase = iota
	BuildProfile
	GenerateNarrative
	SearchTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case VerifyAccount:
		return "verify_account"
	case BuildProfile:
		return "build_profile"
	case GenerateNarrative:
		return "generate_narrative"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func buildProfileUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildProfile,
		Step:    step,
		Total:   total,
		Message: "Analyzing your listening history...",
	}
}

func profileReadyUpdate(step, total, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildProfile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Profile built from %d tracks", tracks),
	}
}

func generateNarrativeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateNarrative,
		Step:    step,
		Total:   total,
		Message: "Asking the curator for festive picks...",
	}
}

func searchTrackUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching for %q...", query),
	}
}

func createPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}
