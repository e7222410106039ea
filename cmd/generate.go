package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelfm/sleighlist/internal/demo"
	"github.com/noelfm/sleighlist/internal/formatter"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/tasks"
	"github.com/noelfm/sleighlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Generate runs profile analysis and narrative generation, printing the
// narrative without creating a playlist.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	var playlistNarrative *models.PlaylistNarrative

	switch {
	case cmd.Bool("demo"):
		narrative, err := demo.Narrative()
		if err != nil {
			return err
		}
		playlistNarrative = narrative

	case cmd.Bool("stream"):
		result, err := r.runStream(ctx, false, true)
		if err != nil {
			return err
		}
		playlistNarrative = result.Narrative

	default:
		result, err := r.engine.Run(ctx, nil, r.identifier(), false, true, nil)
		if err != nil {
			return err
		}
		playlistNarrative = result.Narrative
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, formatter.NarrativeToMarkdown(playlistNarrative), 0644); err != nil {
			return fmt.Errorf("failed to write narrative: %w", err)
		}
		r.logger.Info("narrative saved", "path", path)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(playlistNarrative, cmd.Bool("pretty"))
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.NarrativeToMarkdown(playlistNarrative))
	default:
		return r.writePlain("%s", formatter.NarrativeToText(playlistNarrative))
	}
}

// runStream executes the pipeline behind the streaming terminal view and
// returns the run result once the view settles.
func (r *Runner) runStream(ctx context.Context, public, skipPlaylist bool) (*tasks.RunResult, error) {
	chunks := make(chan string, 64)
	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan ui.StreamResult, 1)

	var runResult *tasks.RunResult
	go func() {
		result, err := r.engine.Run(ctx, progress, r.identifier(), public, skipPlaylist, func(chunk string) {
			chunks <- chunk
		})
		close(chunks)
		if err != nil {
			done <- ui.StreamResult{Err: err}
			return
		}
		runResult = result
		done <- ui.StreamResult{Narrative: result.Narrative}
	}()

	model, err := tea.NewProgram(ui.NewStreamModel(chunks, progress, done)).Run()
	if err != nil {
		return nil, fmt.Errorf("stream view failed: %w", err)
	}

	streamModel, ok := model.(ui.StreamModel)
	if !ok || streamModel.Result() == nil {
		return nil, fmt.Errorf("generation canceled")
	}
	if streamModel.Result().Err != nil {
		return nil, streamModel.Result().Err
	}
	return runResult, nil
}
