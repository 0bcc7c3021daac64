// Package pipeline runs one synchronization of a publication: scan, classify,
// select, fetch, aggregate and assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"serialsync/internal/assembly"
	"serialsync/internal/fetcher"
	"serialsync/internal/history"
	"serialsync/internal/logger"
	"serialsync/internal/manifest"
	"serialsync/internal/models"
	"serialsync/internal/selection"
	"serialsync/internal/watermark"
)

// Outcome reasons.
const (
	ReasonNothingToDo     = "nothing to do"
	ReasonArchiveUpToDate = "no new parts, archive is up to date"
	ReasonAssemblyOff     = "assembly disabled"
)

// ErrSelection indicates the selection surface failed.
var ErrSelection = errors.New("selection failed")

// Scanner enumerates a publication's parts.
type Scanner interface {
	Scan(ctx context.Context, indexURL string) (*models.Publication, error)
}

// PartFetcher materializes a fetch plan on disk.
type PartFetcher interface {
	Fetch(ctx context.Context, pub *models.Publication, plan models.FetchPlan) (*fetcher.Report, error)
	Folder(pub *models.Publication) string
	ArchivePath(pub *models.Publication) string
}

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// Deps are the collaborators of a pipeline. Assembler and Recorder may be nil.
type Deps struct {
	Scanner   Scanner
	Selector  selection.Selector
	Fetcher   PartFetcher
	Assembler assembly.Assembler
	Recorder  Recorder
	Logger    *logger.Logger
}

// Options tune a pipeline.
type Options struct {
	Language        string
	FormatFlags     []string
	WriteManifest   bool
	SkipIfUnchanged bool
}

// Request is the explicit input of one run.
type Request struct {
	Watermark *time.Time
	IndexURL  string
}

// Outcome describes how a run ended.
type Outcome struct {
	Publication *models.Publication
	Report      *fetcher.Report
	Manifest    *models.Manifest
	Archive     string
	Reason      string
	Plan        models.FetchPlan
	Unknown     []string
	Transitions []State
	State       State
}

// Pipeline drives the run state machine.
type Pipeline struct {
	deps Deps
	opts Options
	log  *logger.Logger
}

// New creates a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Pipeline{deps: deps, opts: opts, log: log}
}

func (p *Pipeline) enter(out *Outcome, s State) {
	out.State = s
	out.Transitions = append(out.Transitions, s)
	p.log.Debug("State transition", "state", s.String())
}

// Run executes one synchronization. Each run is one-shot; only files already on
// disk carry over between runs.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{State: StateIdle, Transitions: []State{StateIdle}}
	startedAt := time.Now()

	p.enter(out, StateScanning)

	pub, err := p.deps.Scanner.Scan(ctx, req.IndexURL)
	if err != nil {
		p.enter(out, StateScanError)

		return out, fmt.Errorf("scan failed: %w", err)
	}

	watermark.Apply(pub.Parts, req.Watermark)
	out.Publication = pub
	p.enter(out, StateScanned)

	p.log.Info(fmt.Sprintf("🔍 Scanned %q: %d parts, %d modified", pub.Title, len(pub.Parts), pub.ModifiedCount()), "tags", pub.Tags.Len())

	p.enter(out, StateAwaitingSelection)

	refs, err := p.deps.Selector.Select(ctx, pub)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrSelection, err)
	}

	plan, unknown := selection.AdaptWithUnknown(pub.Parts, refs)
	out.Plan = plan
	out.Unknown = unknown

	for _, ref := range unknown {
		p.log.Warn("⚠️  Ignoring selected part not on the index page", "ref", ref)
	}

	if len(plan) == 0 {
		p.enter(out, StateEmptySelection)
		out.Reason = ReasonNothingToDo
		p.log.Info("No parts selected, nothing to do")

		return out, nil
	}

	p.enter(out, StatePlanReady)
	p.enter(out, StateFetching)

	report, err := p.deps.Fetcher.Fetch(ctx, pub, plan)
	if err != nil {
		p.record(ctx, out, startedAt, history.StatusFailed, err.Error())

		return out, fmt.Errorf("fetch failed: %w", err)
	}

	out.Report = report
	p.log.Info(fmt.Sprintf("📦 Fetched %d parts: %d downloaded, %d already present, %d failed",
		len(report.Results), report.Downloaded, report.Existing, report.Failed))

	p.enter(out, StateAggregating)

	m := manifest.Aggregate(pub, plan, report.Results, p.opts.Language)
	out.Manifest = &m

	if p.opts.WriteManifest {
		path := filepath.Join(p.deps.Fetcher.Folder(pub), manifest.FileName)
		if err := manifest.Write(path, m); err != nil {
			p.log.Warn("Failed to write manifest sidecar", "path", path, "error", err)
		}
	}

	if err := p.assemble(ctx, out, report); err != nil {
		p.enter(out, StateAssemblyError)
		p.record(ctx, out, startedAt, history.StatusFailed, err.Error())

		return out, err
	}

	p.enter(out, StateDone)
	p.record(ctx, out, startedAt, history.StatusSuccess, out.Reason)

	return out, nil
}

func (p *Pipeline) assemble(ctx context.Context, out *Outcome, report *fetcher.Report) error {
	if p.deps.Assembler == nil {
		out.Reason = ReasonAssemblyOff

		return nil
	}

	archivePath := p.deps.Fetcher.ArchivePath(out.Publication)

	if p.opts.SkipIfUnchanged && report.Downloaded == 0 && fetcher.FileExists(archivePath) {
		out.Reason = ReasonArchiveUpToDate
		out.Archive = archivePath
		p.log.Info("⏭️  No new parts downloaded, keeping existing archive", "archive", archivePath)

		return nil
	}

	p.enter(out, StateAssembling)

	if len(out.Manifest.Files) == 0 {
		return fmt.Errorf("%w: %w", assembly.ErrAssembly, assembly.ErrNoFiles)
	}

	req := assembly.NewRequest(archivePath, *out.Manifest, p.opts.FormatFlags)

	archive, err := p.deps.Assembler.Build(ctx, req)
	if err != nil {
		if !errors.Is(err, assembly.ErrAssembly) {
			err = fmt.Errorf("%w: %w", assembly.ErrAssembly, err)
		}

		return err
	}

	out.Archive = archive

	return nil
}

func (p *Pipeline) record(ctx context.Context, out *Outcome, startedAt time.Time, status, reason string) {
	if p.deps.Recorder == nil {
		return
	}

	run := &history.Run{
		IndexURL:   out.Publication.IndexURL,
		Title:      out.Publication.Title,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Planned:    len(out.Plan),
		Archive:    out.Archive,
		Status:     status,
		Reason:     reason,
	}

	if out.Report != nil {
		run.Downloaded = out.Report.Downloaded
		run.Existing = out.Report.Existing
		run.Failed = out.Report.Failed
	}

	// Interrupted runs are recorded too.
	if err := p.deps.Recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		p.log.Warn("Failed to record run history", "error", err)
	}
}

// Summary is the one-line status shown to the operator at the end of a run.
func (o *Outcome) Summary() string {
	switch o.State {
	case StateEmptySelection:
		return ReasonNothingToDo
	case StateDone:
		msg := "done"
		if o.Report != nil {
			msg = fmt.Sprintf("done: %d parts available, %d failed", len(o.Report.Results)-o.Report.Failed, o.Report.Failed)
		}

		if o.Archive != "" {
			msg += ", archive " + o.Archive
		}

		if o.Reason != "" {
			msg += " (" + o.Reason + ")"
		}

		return msg
	default:
		return "failed at " + o.State.String()
	}
}
