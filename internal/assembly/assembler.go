// Package assembly hands fetched parts and their manifest to an external archive builder.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"serialsync/internal/logger"
	"serialsync/internal/models"
)

// Assembly errors.
var (
	ErrAssembly = errors.New("archive assembly failed")
	ErrNoFiles  = errors.New("no part files to assemble")
)

// Request is everything the archive builder needs.
type Request struct {
	OutputName  string
	Title       string
	Narrative   string
	SourceURL   string
	Files       []string
	ExtraFiles  []string
	Tags        []string
	Languages   []string
	FormatFlags []string
}

// NewRequest builds a request from a manifest.
func NewRequest(outputName string, m models.Manifest, formatFlags []string) Request {
	return Request{
		OutputName:  outputName,
		Title:       m.Title,
		Narrative:   m.Narrative,
		SourceURL:   m.SourceURL,
		Files:       m.Files,
		ExtraFiles:  []string{},
		Tags:        m.Tags,
		Languages:   []string{m.Language},
		FormatFlags: formatFlags,
	}
}

// Assembler merges part files into one archive and returns its path.
type Assembler interface {
	Build(ctx context.Context, req Request) (string, error)
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExecAssembler invokes an epubmerge-style command line tool.
type ExecAssembler struct {
	runner  Runner
	logger  *logger.Logger
	command string
}

// NewExecAssembler creates an assembler running command.
func NewExecAssembler(command string, log *logger.Logger) *ExecAssembler {
	return NewExecAssemblerWithRunner(command, ExecRunner{}, log)
}

// NewExecAssemblerWithRunner creates an assembler with a custom runner (useful for testing).
func NewExecAssemblerWithRunner(command string, runner Runner, log *logger.Logger) *ExecAssembler {
	if log == nil {
		log = logger.Discard()
	}

	return &ExecAssembler{
		runner:  runner,
		logger:  log,
		command: command,
	}
}

// Arguments returns the command line for req, input files last.
func Arguments(req Request) []string {
	args := []string{"--output", req.OutputName}

	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}

	if req.Narrative != "" {
		args = append(args, "--description", req.Narrative)
	}

	for _, tag := range req.Tags {
		args = append(args, "--tag", tag)
	}

	for _, lang := range req.Languages {
		args = append(args, "--language", lang)
	}

	if req.SourceURL != "" {
		args = append(args, "--source", req.SourceURL)
	}

	args = append(args, req.FormatFlags...)
	args = append(args, req.Files...)
	args = append(args, req.ExtraFiles...)

	return args
}

// Build implements Assembler.
func (a *ExecAssembler) Build(ctx context.Context, req Request) (string, error) {
	if len(req.Files) == 0 {
		return "", fmt.Errorf("%w: %w", ErrAssembly, ErrNoFiles)
	}

	args := Arguments(req)
	a.logger.Info(fmt.Sprintf("📚 Merging %d parts into %s", len(req.Files), req.OutputName), "command", a.command)
	a.logger.Debug("Assembler arguments", "args", strings.Join(args, " "))

	output, err := a.runner.Run(ctx, a.command, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w (output: %s)", ErrAssembly, a.command, err, strings.TrimSpace(string(output)))
	}

	a.logger.Info(fmt.Sprintf("✅ Merged %s created", req.OutputName))

	return req.OutputName, nil
}
