// Package session owns one watch session at a time: the watcher, the bounded
// event queue, the single action worker and the record sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"printwatch/internal/actionlog"
	"printwatch/internal/logging"
	"printwatch/internal/pipeline"
	"printwatch/internal/rules"
	"printwatch/internal/runstatus"
	"printwatch/internal/watch"
)

type Controller struct {
	rootCtx context.Context
	mu      sync.Mutex
	stop    context.CancelFunc
	abort   context.CancelFunc
	running bool
	// done is closed when the current session's worker has exited. It is
	// replaced on every Start so waiters only ever see one session.
	done chan struct{}
}

type StartHooks struct {
	OnStatus func(string)
	OnRecord func(actionlog.Entry)
	OnExit   func(error)
}

func NewController(rootCtx context.Context) *Controller {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Controller{rootCtx: rootCtx}
}

// Start validates cfg, prepares the relocation target and record sink, and
// begins watching. Every failure is a *SetupError and leaves nothing running.
func (c *Controller) Start(cfg Config, logger *logging.Logger, hooks StartHooks) error {
	if logger == nil {
		panic("session.Controller.Start: logger must not be nil")
	}
	if cfg.Dispatcher == nil {
		panic("session.Controller.Start: dispatcher must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}
	notifyStatus(hooks, runstatus.Starting)

	s, err := prepare(cfg, logger)
	if err != nil {
		logger.Error("session setup failed", logging.Field("error", err))
		notifyStatus(hooks, runstatus.Error)
		return err
	}

	stopCtx, stop := context.WithCancel(c.rootCtx)
	workCtx, abort := context.WithCancel(context.WithoutCancel(c.rootCtx))
	events, err := s.watcher.Start(stopCtx, rules.Roots(s.rules))
	if err != nil {
		stop()
		abort()
		_ = s.sink.Close()
		err = setupError("start watcher", err)
		logger.Error("session setup failed", logging.Field("error", err))
		notifyStatus(hooks, runstatus.Error)
		return err
	}

	var forwarders sync.WaitGroup
	if hooks.OnRecord != nil {
		records, _ := s.sink.Subscribe(cfg.queueSize())
		forwarders.Go(func() {
			for entry := range records {
				hooks.OnRecord(entry)
			}
		})
	}

	done := make(chan struct{})
	c.stop = stop
	c.abort = abort
	c.running = true
	c.done = done
	go func() {
		defer close(done)
		runErr := s.run(stopCtx, workCtx, events)
		s.watcher.Stop()
		if err := s.sink.Close(); err != nil {
			logger.Warn("failed to close record sink", logging.Field("error", err))
		}
		forwarders.Wait()
		abort()

		if runErr != nil {
			logger.Warn("session exited with error", logging.Field("error", runErr))
			notifyStatus(hooks, runstatus.Error)
		} else {
			logger.Info("session stopped")
			notifyStatus(hooks, runstatus.Stopped)
		}

		c.mu.Lock()
		c.running = false
		c.stop = nil
		c.abort = nil
		c.mu.Unlock()

		if hooks.OnExit != nil {
			hooks.OnExit(runErr)
		}
	}()

	logger.Info("session started",
		logging.Field("rules", len(s.rules)),
		logging.Field("archive", s.target),
		logging.Field("record_dir", s.sink.Dir()),
		logging.Field("queue_size", cfg.queueSize()),
	)
	notifyStatus(hooks, runstatus.Watching)
	return nil
}

// Stop ends notification intake, lets the in-flight file finish its
// pipeline, abandons files still queued, and waits for the session to wind
// down.
func (c *Controller) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
}

// Wait blocks until the current session has exited or timeout elapses. A
// non-positive timeout waits indefinitely.
func (c *Controller) Wait(timeout time.Duration) bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	return waitDone(done, timeout)
}

func waitDone(done <-chan struct{}, timeout time.Duration) bool {
	if done == nil {
		return true
	}
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// StopAndWait is Stop with a grace period. When the in-flight file has not
// finished within grace the pipeline is cancelled so it halts at the next
// step boundary. It reports whether the session ended within grace.
func (c *Controller) StopAndWait(grace time.Duration) bool {
	c.mu.Lock()
	stop, abort, done := c.stop, c.abort, c.done
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	if waitDone(done, grace) {
		return true
	}
	if abort != nil {
		abort()
	}
	<-done
	return false
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func notifyStatus(hooks StartHooks, status string) {
	if hooks.OnStatus != nil {
		hooks.OnStatus(status)
	}
}

// session is the state of one Start..Stop cycle.
type session struct {
	logger   *logging.Logger
	rules    []rules.Rule
	matcher  *rules.Matcher
	target   string
	sink     *actionlog.Sink
	watcher  *watch.Watcher
	pipeline *pipeline.Pipeline
	settle   watch.SettleOptions
}

func prepare(cfg Config, logger *logging.Logger) (*session, error) {
	validated, err := rules.Validate(cfg.Rules)
	if err != nil {
		return nil, setupError("load rules", err)
	}

	target := strings.TrimSpace(cfg.RelocationTarget)
	if target == "" {
		return nil, setupError("create relocation target", errors.New("relocation target is required"))
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return nil, setupError("create relocation target", err)
	}
	for _, rule := range validated {
		if rules.HasPathPrefix(rule.Root, target) {
			return nil, setupError("create relocation target", fmt.Errorf("%w: %s", ErrArchiveContainsRoot, rule.Root))
		}
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, setupError("create relocation target", err)
	}
	logger.Debug("relocation target ready", logging.Field("path", target))

	sink := actionlog.New(cfg.RecordDir, logger)
	if err := sink.Open(); err != nil {
		return nil, setupError("open record sink", err)
	}

	return &session{
		logger:  logger,
		rules:   validated,
		matcher: rules.NewMatcher(validated),
		target:  target,
		sink:    sink,
		watcher: watch.New(logger, watch.Options{Buffer: cfg.queueSize(), Exclude: []string{target}}),
		pipeline: pipeline.New(pipeline.Options{
			Dispatcher:       cfg.Dispatcher,
			RelocationTarget: target,
			Sink:             sink,
			Logger:           logger,
			DispatchTimeout:  cfg.DispatchTimeout,
			RelocateDelay:    cfg.RelocateDelay,
			Clock:            cfg.Clock,
		}),
		settle: cfg.Settle,
	}, nil
}

// run is the single worker. stopCtx ends intake; workCtx is only cancelled
// when a stop grace period runs out.
func (s *session) run(stopCtx, workCtx context.Context, events <-chan watch.FileEvent) error {
	for {
		var (
			ev watch.FileEvent
			ok bool
		)
		select {
		case <-stopCtx.Done():
			s.abandon(events, 0)
			return nil
		case ev, ok = <-events:
		}
		if !ok {
			if stopCtx.Err() != nil {
				return nil
			}
			return ErrWatcherClosed
		}
		if stopCtx.Err() != nil {
			s.abandon(events, 1)
			return nil
		}
		s.process(stopCtx, workCtx, ev)
	}
}

func (s *session) abandon(events <-chan watch.FileEvent, pending int) {
	n := pending
	for range events {
		n++
	}
	if n > 0 {
		s.logger.Warn("abandoned queued files on stop", logging.Field("count", n))
	}
}

func (s *session) process(stopCtx, workCtx context.Context, ev watch.FileEvent) {
	if s.ignored(ev.Path) {
		s.logger.Debug("ignoring own output", logging.Field("path", ev.Path))
		return
	}
	rule, index, ok := s.matcher.Resolve(ev.Path)
	if !ok {
		s.logger.Debug("no rule matched", logging.Field("path", ev.Path))
		return
	}

	if _, err := watch.Settle(stopCtx, ev.Path, s.settle); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, watch.ErrNotRegularFile):
			s.logger.Debug("dropping event", logging.Field("path", ev.Path), logging.Field("error", err))
		case stopCtx.Err() != nil:
			s.logger.Warn("abandoned file while waiting for it to settle", logging.Field("path", ev.Path))
		default:
			s.logger.Warn("file never settled, leaving it in place", logging.Field("path", ev.Path), logging.Field("error", err))
		}
		return
	}

	s.pipeline.Execute(workCtx, pipeline.MatchedEvent{Path: ev.Path, Rule: rule, RuleIndex: index})
}

func (s *session) ignored(path string) bool {
	return rules.HasPathPrefix(path, s.target) || s.sink.Owns(path)
}
