package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/logging"
)

var (
	// ErrUnknownEntity is returned for an entity key with no schema.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrRunNotFound is returned for an unknown or expired run id.
	ErrRunNotFound = errors.New("import run not found")

	// ErrNoFile is returned when an import is submitted without a file.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file")
)

// DefaultResultRetention is how long a finished run stays queryable.
const DefaultResultRetention = 10 * time.Minute

// Options configures a Service.
type Options struct {
	MaxConcurrent int
	MaxWait       time.Duration
	MaxFileSize   int64

	// Timeout bounds each run. Zero means runs are never cancelled.
	Timeout time.Duration

	// Retention is how long finished runs stay in memory.
	Retention time.Duration

	Observer Observer
	Now      func() time.Time
}

// Service runs imports and serves the list views.
type Service struct {
	store    docstore.Store
	identity identity.Provider
	limiter  *ImportLimiter
	pipeline *Pipeline
	opts     Options

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID       string
	Entity   string
	FileName string

	mu        sync.Mutex
	progress  Progress
	result    *Result
	done      chan struct{}
	changed   chan struct{}
	listeners []chan Progress
}

// NewService creates a Service over store and idp. idp may be nil when no
// schema creates accounts.
func NewService(store docstore.Store, idp identity.Provider, opts Options) *Service {
	if opts.Retention <= 0 {
		opts.Retention = DefaultResultRetention
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Service{
		store:    store,
		identity: idp,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		pipeline: &Pipeline{
			Store:       store,
			Identity:    idp,
			Observer:    opts.Observer,
			MaxFileSize: opts.MaxFileSize,
			Now:         opts.Now,
		},
		opts: opts,
		runs: make(map[string]*activeRun),
	}
}

// Entities returns every registered schema in menu order.
func (s *Service) Entities() []EntityInfo {
	schemas := All()
	infos := make([]EntityInfo, len(schemas))
	for i, sc := range schemas {
		infos[i] = sc.Info()
	}
	return infos
}

// Schema returns the schema registered under entity.
func (s *Service) Schema(entity string) (*Schema, error) {
	sc, ok := Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return sc, nil
}

// StartImport begins an asynchronous import of data and returns the run id
// immediately. The run continues after ctx ends; use SubscribeProgress,
// WaitProgress or Result to follow it.
func (s *Service) StartImport(ctx context.Context, entity, fileName string, data []byte) (string, error) {
	sc, err := s.Schema(entity)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", ErrNoFile
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	run := &activeRun{
		ID:       runID,
		Entity:   entity,
		FileName: fileName,
		progress: Progress{
			RunID:    runID,
			Entity:   entity,
			FileName: fileName,
			Phase:    PhaseStarting,
		},
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	runCtx := logging.WithRun(detach(ctx), runID)
	go s.execute(runCtx, run, sc, data)

	return runID, nil
}

func (s *Service) execute(ctx context.Context, run *activeRun, sc *Schema, data []byte) {
	defer s.limiter.Release()
	defer s.cleanup(run.ID, s.opts.Retention)

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("import panicked", "entity", sc.Key, "panic", r)
			run.finish(Result{
				RunID:     run.ID,
				Entity:    sc.Key,
				FileName:  run.FileName,
				Phase:     PhaseFailed,
				Error:     fmt.Sprintf("internal error: %v", r),
				Message:   fmt.Sprintf("internal error: %v", r),
				StartedAt: started,
				Duration:  time.Since(started),
			})
		}
	}()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res := s.pipeline.Run(ctx, sc, bytes.NewReader(data), run.update)
	res.RunID = run.ID
	res.FileName = run.FileName

	s.recordRun(ctx, res)
	run.finish(res)
}

// RunImport imports r synchronously, for the CLI. It returns an error only
// when the run could not start; import failures are reported in the Result.
func (s *Service) RunImport(ctx context.Context, entity, fileName string, r io.Reader, onProgress ProgressFunc) (Result, error) {
	sc, err := s.Schema(entity)
	if err != nil {
		return Result{}, err
	}
	if r == nil {
		return Result{}, ErrNoFile
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return Result{}, err
	}
	defer s.limiter.Release()

	runID := uuid.New().String()
	ctx = logging.WithRun(ctx, runID)
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res := s.pipeline.Run(ctx, sc, r, func(p Progress) {
		p.RunID = runID
		p.FileName = fileName
		if onProgress != nil {
			onProgress(p)
		}
	})
	res.RunID = runID
	res.FileName = fileName

	s.recordRun(ctx, res)
	return res, nil
}

// SubscribeProgress returns a channel that receives progress updates and is
// closed when the run finishes, plus a func that stops the subscription
// early. The current state is delivered immediately.
func (s *Service) SubscribeProgress(runID string) (<-chan Progress, func(), error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Progress, 16)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	if run.result != nil {
		close(ch)
		return ch, func() {}, nil
	}
	run.listeners = append(run.listeners, ch)

	unsubscribe := func() {
		run.mu.Lock()
		defer run.mu.Unlock()
		for i, l := range run.listeners {
			if l == ch {
				run.listeners = append(run.listeners[:i], run.listeners[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe, nil
}

// GetProgress returns the current progress without blocking.
func (s *Service) GetProgress(runID string) (Progress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return Progress{}, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.progress, nil
}

// WaitProgress blocks until the run publishes an update newer than afterSeq,
// the run finishes, or ctx ends, then returns the current progress. It is
// the long-polling counterpart of SubscribeProgress.
func (s *Service) WaitProgress(ctx context.Context, runID string, afterSeq int) (Progress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return Progress{}, err
	}

	for {
		run.mu.Lock()
		p, finished, changed := run.progress, run.result != nil, run.changed
		run.mu.Unlock()

		if p.Seq > afterSeq || finished {
			return p, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return p, nil
		}
	}
}

// Result blocks until the run finishes or ctx ends.
func (s *Service) Result(ctx context.Context, runID string) (Result, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return Result{}, err
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return *run.result, nil
}

// LookupResult returns the result of a finished run. It reports false while
// the run is still going.
func (s *Service) LookupResult(runID string) (Result, bool, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return Result{}, false, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.result == nil {
		return Result{}, false, nil
	}
	return *run.result, true, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running imports to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// update publishes p to every listener. A listener whose buffer is full
// loses its oldest queued update, so the newest snapshot is always queued.
func (run *activeRun) update(p Progress) {
	run.mu.Lock()
	defer run.mu.Unlock()

	p.RunID = run.ID
	p.FileName = run.FileName
	p.Seq = run.progress.Seq + 1
	run.progress = p

	for _, ch := range run.listeners {
		offer(ch, p)
	}

	close(run.changed)
	run.changed = make(chan struct{})
}

// offer queues p on ch without blocking, evicting the oldest queued value
// when ch is full. Callers hold run.mu, so no other sender races for the slot.
func offer(ch chan Progress, p Progress) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// finish stores the result and closes every listener.
func (run *activeRun) finish(res Result) {
	run.mu.Lock()
	defer run.mu.Unlock()

	if run.result != nil {
		return
	}
	run.result = &res

	terminal := !run.progress.Phase.Terminal()
	if terminal {
		run.progress.Phase = res.Phase
		run.progress.Error = res.Error
		run.progress.Message = res.Message
		run.progress.Seq++
	}

	for _, ch := range run.listeners {
		if terminal {
			offer(ch, run.progress)
		}
		close(ch)
	}
	run.listeners = nil

	close(run.done)
	close(run.changed)
	run.changed = make(chan struct{})
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}
