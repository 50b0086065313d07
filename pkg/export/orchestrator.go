// Package export coordinates an export invocation.
//
// The [Orchestrator] validates the requested formats, builds every selected
// format concurrently, delivers the successful artifacts, and reports a
// per-format [Outcome]. One format failing, by error or panic, never
// cancels or fails its siblings: the export is Done when at least one
// format is delivered and fails only when all of them do.
//
//	orch := export.New(export.Options{Sink: delivery.Dir{Path: "out"}})
//	res, err := orch.Export(ctx, export.Request{
//	    Rows:    rows,
//	    Columns: columns,
//	    Formats: export.Formats{CSV: true, Document: true},
//	})
package export

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/matzehuels/stackreport/pkg/document"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/export/delivery"
	"github.com/matzehuels/stackreport/pkg/observability"
	"github.com/matzehuels/stackreport/pkg/report"
	"github.com/matzehuels/stackreport/pkg/tabular"
)

// DocumentRenderer renders the document format. [*document.Builder]
// implements it.
type DocumentRenderer interface {
	Render(ctx context.Context, m *report.Model) ([]byte, error)
}

// Options configures an [Orchestrator].
type Options struct {
	Document DocumentRenderer
	Store    delivery.BlobStore
	Sink     delivery.Sink

	Now    func() time.Time
	NewID  func() string
	Logger *log.Logger
}

// Orchestrator runs exports. It holds no per-invocation state and may run
// several exports at once.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator. Unset options default to a PDF document
// builder, temp-file blobs, and an in-memory sink.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Document == nil {
		opts.Document = document.NewBuilder(document.Options{Logger: opts.Logger})
	}
	if opts.Store == nil {
		opts.Store = delivery.TempStore{}
	}
	if opts.Sink == nil {
		opts.Sink = &delivery.Memory{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Orchestrator{opts: opts}
}

type artifact struct {
	format   Format
	filename string
	data     []byte
	err      error
	dur      time.Duration
}

// Export runs one invocation. The error is non-nil only when validation
// fails or every format fails; partial failures are reported in the
// result's outcomes.
func (o *Orchestrator) Export(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{ID: o.opts.NewID(), Outcomes: make(map[Format]Outcome)}
	res.enter(StateIdle)
	logger := o.opts.Logger.With("export", res.ID)

	res.enter(StateValidating)
	formats := req.Formats.List()
	basename := req.FileBasename
	if basename == "" {
		basename = DefaultBasename
	}
	if err := o.validate(formats, basename); err != nil {
		res.enter(StateFailedValidation)
		res.Duration = time.Since(start)
		logger.Warn("export rejected", "error", err)
		observability.Export().OnExportComplete(ctx, res.ID, string(res.State), res.Duration, err)
		return res, err
	}

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	observability.Export().OnExportStart(ctx, res.ID, names)
	logger.Info("export started", "formats", names)

	stamp := o.opts.Now()
	res.enter(StateBuilding)
	artifacts := make([]artifact, len(formats))
	var wg sync.WaitGroup
	for i, f := range formats {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			artifacts[i] = o.build(ctx, res.ID, f, req, stamp)
			artifacts[i].filename = Filename(basename, stamp, f)
		}()
	}
	wg.Wait()

	res.enter(StateDelivering)
	var failed *multierror.Error
	nfailed := 0
	for _, a := range artifacts {
		if a.err == nil {
			a.err = o.deliver(ctx, a)
			observability.Export().OnDelivery(ctx, res.ID, string(a.format), a.filename, a.err)
		}
		out := Outcome{Format: a.format, Filename: a.filename, Bytes: len(a.data), Err: a.err, Duration: a.dur}
		res.Outcomes[a.format] = out
		if a.err != nil {
			failed = multierror.Append(failed, a.err)
			nfailed++
			logger.Warn("format failed", "format", a.format, "error", a.err)
			continue
		}
		logger.Info("delivered", "format", a.format, "file", a.filename, "bytes", out.Bytes, "duration", a.dur)
	}

	var err error
	if nfailed == len(artifacts) {
		res.enter(StateFailedAll)
		err = errors.Wrap(errors.ErrCodeAllFailed, failed.ErrorOrNil(), "all %d formats failed", len(artifacts))
	} else {
		res.enter(StateDone)
	}
	res.Duration = time.Since(start)
	observability.Export().OnExportComplete(ctx, res.ID, string(res.State), res.Duration, err)
	return res, err
}

func (o *Orchestrator) validate(formats []Format, basename string) error {
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeValidation, "no export format selected")
	}
	if err := errors.ValidateBasename(basename); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "invalid file basename %q", basename)
	}
	return nil
}

func (o *Orchestrator) build(ctx context.Context, id string, f Format, req Request, stamp time.Time) (a artifact) {
	a.format = f
	start := time.Now()
	observability.Export().OnBuildStart(ctx, id, string(f))
	defer func() {
		if r := recover(); r != nil {
			a.data = nil
			a.err = errors.New(errors.ErrCodeFormatBuild, "%s build panicked: %v", f, r)
		}
		a.dur = time.Since(start)
		observability.Export().OnBuildComplete(ctx, id, string(f), len(a.data), a.dur, a.err)
	}()

	var err error
	switch f {
	case FormatCSV:
		a.data = tabular.BuildCSV(req.Rows, req.Columns)
	case FormatXLSX:
		a.data, err = tabular.BuildXLSX(req.Rows, req.Columns, req.Sheet)
	case FormatDocument:
		a.data, err = o.opts.Document.Render(ctx, documentModel(req, stamp))
	default:
		err = errors.New(errors.ErrCodeFormatBuild, "unknown format %q", f)
	}
	if err != nil {
		a.data = nil
		a.err = errors.Wrap(errors.ErrCodeFormatBuild, err, "build %s", f)
	}
	return a
}

func (o *Orchestrator) deliver(ctx context.Context, a artifact) error {
	blob, err := o.opts.Store.Acquire(ctx, a.filename, a.data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "acquire blob for %s", a.filename)
	}
	defer blob.Release()

	if err := o.opts.Sink.Save(ctx, blob, a.filename); err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "save %s", a.filename)
	}
	return nil
}

// documentModel returns the model for the document path without touching
// the request's model.
func documentModel(req Request, stamp time.Time) *report.Model {
	if req.Model != nil {
		m := *req.Model
		if m.Meta.GeneratedAt.IsZero() {
			m.Meta.GeneratedAt = stamp
		}
		if m.Meta.Title == "" {
			m.Meta.Title = req.Title
		}
		return &m
	}

	title := req.Title
	if title == "" {
		title = "Report"
	}
	sec := report.Section{
		ID:      "data",
		Heading: title,
		Kind:    report.KindDataTable,
		Table:   &report.Table{Columns: req.Columns, Rows: req.Rows},
	}
	return &report.Model{
		Meta:     report.Meta{Title: title, GeneratedAt: stamp},
		Sections: []report.Section{sec},
	}
}
