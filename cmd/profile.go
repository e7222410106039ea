package main

import (
	"context"
	"fmt"

	"github.com/noelfm/sleighlist/internal/demo"
	"github.com/noelfm/sleighlist/internal/formatter"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/urfave/cli/v3"
)

// Profile analyzes listening history into a music profile and prints it.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	var userProfile *models.UserMusicProfile
	var err error

	if cmd.Bool("demo") {
		userProfile, err = demo.Profile()
	} else {
		userProfile, err = r.engine.BuildProfile(ctx, nil, r.identifier())
	}
	if err != nil {
		return fmt.Errorf("failed to build profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(userProfile, cmd.Bool("pretty"))
	}

	r.writePlainln("Your music profile")
	return r.writePlain("%s", formatter.ProfileToText(userProfile))
}
