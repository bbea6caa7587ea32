package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Sink is a durable home for session references and audit records.
type Sink interface {
	InitSession(ctx context.Context) (string, error)
	WriteTrialResult(ctx context.Context, reference string, r models.TrialResult) error
	WriteGameAudit(ctx context.Context, a models.GameAudit) error
}

// Recorder writes audit records in the background. Failures are logged and
// never reach the caller.
type Recorder struct {
	log     *zap.Logger
	sink    Sink
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRecorder wraps sink. Each background write is bounded by timeout when
// it is positive.
func NewRecorder(log *zap.Logger, sink Sink, timeout time.Duration) *Recorder {
	return &Recorder{
		log:     log.Named("recorder"),
		sink:    sink,
		timeout: timeout,
	}
}

// InitSession opens a reference synchronously.
func (r *Recorder) InitSession(ctx context.Context) (string, error) {
	return r.sink.InitSession(ctx)
}

// RecordTrial queues a trial result write. Results without a reference
// are dropped.
func (r *Recorder) RecordTrial(reference string, result models.TrialResult) {
	if reference == "" {
		r.log.Debug("Skipping trial record without reference")
		return
	}
	r.spawn("trial", func(ctx context.Context) error {
		return r.sink.WriteTrialResult(ctx, reference, result)
	})
}

// RecordGame queues a game audit write. Audits without a game reference
// are dropped.
func (r *Recorder) RecordGame(audit models.GameAudit) {
	if audit.GameReference == "" {
		r.log.Debug("Skipping game audit without reference")
		return
	}
	r.spawn("game", func(ctx context.Context) error {
		return r.sink.WriteGameAudit(ctx, audit)
	})
}

func (r *Recorder) spawn(kind string, write func(context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("Dropping record after close", zap.String("kind", kind))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx := context.Background()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		if err := write(ctx); err != nil {
			r.log.Error("Failed to write record", zap.String("kind", kind), zap.Error(err))
			return
		}
		r.log.Debug("Record written", zap.String("kind", kind))
	}()
}

// Close stops accepting records and waits for pending writes or ctx.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrNoStore is returned by Discard when asked for a reference.
var ErrNoStore = errors.New("no results store configured")

// Discard is the sink used when no store backend is configured.
type Discard struct{}

func (Discard) InitSession(context.Context) (string, error) { return "", ErrNoStore }

func (Discard) WriteTrialResult(context.Context, string, models.TrialResult) error { return nil }

func (Discard) WriteGameAudit(context.Context, models.GameAudit) error { return nil }
