package main

import (
	"context"
	"fmt"

	"github.com/noelfm/sleighlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate runs the full pipeline and creates the playlist on Spotify.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	public := cmd.Bool("public")

	var result *tasks.RunResult
	var err error

	if cmd.Bool("stream") {
		result, err = r.runStream(ctx, public, false)
	} else {
		result, err = r.engine.Run(ctx, nil, r.identifier(), public, false, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	materialized := result.Materialized
	if materialized == nil || materialized.Playlist == nil {
		return fmt.Errorf("pipeline finished without a playlist")
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"playlist":        materialized.Playlist,
			"snapshotId":      materialized.SnapshotID,
			"addedCount":      materialized.AddedCount,
			"missedCount":     materialized.MissedCount,
			"matchPercentage": materialized.MatchPercentage,
			"narrative":       result.Narrative,
		}, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Created %q", materialized.Playlist.Name)
	if materialized.Playlist.URL != "" {
		r.writePlain("Link: %s\n", materialized.Playlist.URL)
	}
	r.writePlain("Tracks: %d added, %d not found (%.0f%% matched)\n",
		materialized.AddedCount, materialized.MissedCount, materialized.MatchPercentage)

	for _, match := range materialized.TrackMatches {
		if match.Matched == nil {
			r.writePlain("  ✗ %s\n", match.Recommendation.SearchQuery)
		}
	}

	r.writePlain("\n%s\n", result.Narrative.OverallNarrative)
	return nil
}
