package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/noelfm/sleighlist/internal/narrative"
	"github.com/noelfm/sleighlist/internal/profile"
	"github.com/noelfm/sleighlist/internal/ratelimit"
	"github.com/noelfm/sleighlist/internal/repositories"
	"github.com/noelfm/sleighlist/internal/services"
	"github.com/noelfm/sleighlist/internal/shared"
	"github.com/noelfm/sleighlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	music       services.MusicService
	completion  services.CompletionService
	engine      *tasks.SleighEngine
	credentials *repositories.CredentialRepository
	logger      *log.Logger
	output      io.Writer

	musicLimiter *ratelimit.Limiter
	genLimiter   *ratelimit.Limiter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Music       services.MusicService
	Completion  services.CompletionService
	Credentials *repositories.CredentialRepository
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		music:       opts.Music,
		completion:  opts.Completion,
		credentials: opts.Credentials,
		logger:      opts.Logger,
		output:      opts.Output,
	}

	r.musicLimiter = ratelimit.NewLimiter(opts.Config.Limits.MusicPerMinute, time.Minute)
	r.genLimiter = ratelimit.NewLimiter(opts.Config.Limits.GenerationPerMinute, time.Minute)

	r.engine = tasks.NewSleighEngine(
		opts.Music,
		newAnalyzer(opts.Music, opts.Config, opts.Logger),
		newGenerator(opts.Completion, opts.Logger),
		r.musicLimiter,
		r.genLimiter,
		opts.Logger,
	)

	return r
}

func newAnalyzer(music services.MusicService, config *shared.Config, logger *log.Logger) *profile.Analyzer {
	if music == nil {
		return nil
	}
	analyzer := profile.NewAnalyzer(music, logger)
	analyzer.SetLimits(config.Analysis.TopTracksLimit, config.Analysis.RecentlyPlayedLimit)
	return analyzer
}

func newGenerator(completion services.CompletionService, logger *log.Logger) *narrative.Generator {
	if completion == nil {
		return nil
	}
	return narrative.NewGenerator(completion, logger)
}

// identifier derives the rate-limit key for this invocation from the stored
// credential, falling back to the shared anonymous bucket.
func (r *Runner) identifier() string {
	if r.credentials != nil {
		if stored, err := r.credentials.List(nil); err == nil && len(stored) > 0 {
			return ratelimit.Identifier(stored[0].AccountID(), "")
		}
	}
	return ratelimit.Identifier("", "")
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, generateCommand, playlistCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
