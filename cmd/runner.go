package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/credentials"
	"github.com/desertthunder/markx/internal/repositories"
	"github.com/desertthunder/markx/internal/services"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	services    *services.Services
	credentials *credentials.Store
	accounts    *repositories.CredentialRepository
	analyses    *repositories.AnalysisRepository
	engine      *tasks.AnalysisEngine
	logger      *log.Logger
	output      io.Writer
	input       *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Services    *services.Services
	Credentials *credentials.Store
	Accounts    *repositories.CredentialRepository
	Analyses    *repositories.AnalysisRepository
	Engine      *tasks.AnalysisEngine
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		services:    opts.Services,
		credentials: opts.Credentials,
		accounts:    opts.Accounts,
		analyses:    opts.Analyses,
		engine:      opts.Engine,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       bufio.NewReader(opts.Input),
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the screen.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, bookmarkCommand, spaceCommand, tagCommand, shareCommand,
		inboxCommand, analyzeCommand, dataCommand, feedbackCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireServices fails when the API client could not be built.
func (r *Runner) requireServices() error {
	if r.services == nil || r.credentials == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// requireAuth fails early when no credential is stored in any tier.
func (r *Runner) requireAuth() error {
	if err := r.requireServices(); err != nil {
		return err
	}
	if token, _ := r.credentials.Lookup(); token == "" {
		return shared.ErrNotAuthenticated
	}
	return nil
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// prompt writes label and reads one trimmed line of input.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// valueOrPrompt returns value, prompting for it when empty.
func (r *Runner) valueOrPrompt(value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return r.prompt(label)
}
