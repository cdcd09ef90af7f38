// Package pipeline runs the per-file actions in order: submit to the output
// device, move into the relocation target, append the record line. A failing
// step never prevents the later ones from being attempted.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"printwatch/internal/actionlog"
	"printwatch/internal/dispatch"
	"printwatch/internal/logging"
	"printwatch/internal/rules"
)

// Sink receives the record entry of every processed file.
type Sink interface {
	Append(entry actionlog.Entry) error
}

type Options struct {
	Dispatcher       dispatch.Dispatcher
	RelocationTarget string
	Sink             Sink
	Logger           *logging.Logger
	// DispatchTimeout bounds a single submission when positive.
	DispatchTimeout time.Duration
	// RelocateDelay, when positive, keeps a successfully dispatched file in
	// place that long so a print handler that returns before reading the
	// file can still open it. Cancellation ends the wait early.
	RelocateDelay time.Duration
	Clock         func() time.Time
}

// MatchedEvent is a new file together with the rule that claimed it.
type MatchedEvent struct {
	Path      string
	Rule      rules.Rule
	RuleIndex int
}

type Pipeline struct {
	dispatcher      dispatch.Dispatcher
	target          string
	sink            Sink
	logger          *logging.Logger
	dispatchTimeout time.Duration
	relocateDelay   time.Duration
	now             func() time.Time
}

func New(opts Options) *Pipeline {
	if opts.Dispatcher == nil {
		panic("pipeline.New: dispatcher must not be nil")
	}
	if opts.Sink == nil {
		panic("pipeline.New: sink must not be nil")
	}
	if opts.Logger == nil {
		panic("pipeline.New: logger must not be nil")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		dispatcher:      opts.Dispatcher,
		target:          opts.RelocationTarget,
		sink:            opts.Sink,
		logger:          opts.Logger,
		dispatchTimeout: opts.DispatchTimeout,
		relocateDelay:   opts.RelocateDelay,
		now:             now,
	}
}

// Execute runs every step for ev and reports what happened. Once ctx is done
// no further dispatch or relocation is started, but a record line is still
// written for a file that was already acted on.
func (p *Pipeline) Execute(ctx context.Context, ev MatchedEvent) ActionRecord {
	rec := ActionRecord{
		ID:         uuid.NewString(),
		SourcePath: ev.Path,
		RuleIndex:  ev.RuleIndex,
		Target:     ev.Rule.Target,
	}
	logger := p.logger.With(
		logging.Field("record_id", rec.ID),
		logging.Field("rule", ev.RuleIndex),
		logging.Field("target", ev.Rule.Target),
	)

	rec.Dispatch = p.step(ctx, logger, StepDispatch, ev.Path, func() error {
		dispatchCtx := ctx
		if p.dispatchTimeout > 0 {
			var cancel context.CancelFunc
			dispatchCtx, cancel = context.WithTimeout(ctx, p.dispatchTimeout)
			defer cancel()
		}
		return p.dispatcher.Dispatch(dispatchCtx, ev.Path, ev.Rule.Target)
	})

	if rec.Dispatch.Status == StatusOK && p.relocateDelay > 0 {
		p.hold(ctx, logger, ev.Path)
	}

	rec.Relocate = p.step(ctx, logger, StepRelocate, ev.Path, func() error {
		dest, err := Relocate(ev.Path, p.target)
		rec.DestPath = dest
		return err
	})

	rec.Time = p.now()
	if !rec.Dispatch.Attempted() && !rec.Relocate.Attempted() {
		rec.Record = StepOutcome{Step: StepRecord, Status: StatusSkipped, Err: skipped(StepRecord, ev.Path, ctx.Err())}
		logger.Warn("abandoned file before any action", logging.Field("path", ev.Path), logging.Field("error", ctx.Err()))
		return rec
	}
	rec.Record = p.step(context.WithoutCancel(ctx), logger, StepRecord, ev.Path, func() error {
		return p.sink.Append(rec.Entry())
	})

	logger.Info("file processed",
		logging.Field("path", ev.Path),
		logging.Field("dest", rec.DestPath),
		logging.Field("outcome", string(rec.Outcome())),
	)
	return rec
}

func (p *Pipeline) step(ctx context.Context, logger *logging.Logger, step Step, path string, run func() error) StepOutcome {
	if err := ctx.Err(); err != nil {
		logger.Info("step skipped", logging.Field("step", string(step)), logging.Field("path", path), logging.Field("error", err))
		return StepOutcome{Step: step, Status: StatusSkipped, Err: skipped(step, path, err)}
	}
	started := time.Now()
	if err := run(); err != nil {
		logger.Warn("step failed",
			logging.Field("step", string(step)),
			logging.Field("path", path),
			logging.Field("elapsed", time.Since(started)),
			logging.Field("error", err),
		)
		return StepOutcome{Step: step, Status: StatusFailed, Err: &StepError{Step: step, Path: path, Err: err}}
	}
	logger.Debug("step ok", logging.Field("step", string(step)), logging.Field("path", path), logging.Field("elapsed", time.Since(started)))
	return StepOutcome{Step: step, Status: StatusOK}
}

// hold waits out the relocate delay. A cancelled ctx cuts it short and the
// relocate step then reports itself skipped.
func (p *Pipeline) hold(ctx context.Context, logger *logging.Logger, path string) {
	logger.Debug("holding file before relocation", logging.Field("path", path), logging.Field("delay", p.relocateDelay))
	timer := time.NewTimer(p.relocateDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func skipped(step Step, path string, cause error) error {
	if cause == nil {
		cause = ErrSkipped
	} else {
		cause = fmt.Errorf("%w: %w", ErrSkipped, cause)
	}
	return &StepError{Step: step, Path: path, Err: cause}
}
