package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	DefaultInitialDelay   = 5 * time.Second
	DefaultPollInterval   = 5 * time.Second
	DefaultMaxAttempts    = 60
	DefaultRequestTimeout = 30 * time.Second
)

// StatusFetcher retrieves the raw status payload for an upstream job.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, kind domain.Kind, id string) (map[string]any, error)
}

// PollState is the final state of one poll loop.
type PollState string

const (
	PollCompleted PollState = "completed"
	PollFailed    PollState = "failed"
	PollTimedOut  PollState = "timed_out"
	PollCancelled PollState = "cancelled"
)

// Outcome describes how a poll loop ended.
type Outcome struct {
	JobID    string
	State    PollState
	Attempts int
	Err      error
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Fetcher        StatusFetcher
	Store          *Store
	InitialDelay   time.Duration
	Interval       time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
	Logger         *infra.Logger
}

// Scheduler drives per-job status polling. Each job has at most one loop, and
// a loop never issues a probe before the previous one returned.
type Scheduler struct {
	fetcher        StatusFetcher
	store          *Store
	initialDelay   time.Duration
	interval       time.Duration
	maxAttempts    int
	requestTimeout time.Duration
	logger         *infra.Logger

	mu     sync.Mutex
	active map[string]*Poll
}

// Poll is a handle on one running poll loop.
type Poll struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Done is closed once the loop has exited.
func (p *Poll) Done() <-chan struct{} { return p.done }

// Cancel stops future ticks. An in-flight probe is allowed to return but its
// result is discarded.
func (p *Poll) Cancel() { p.cancel() }

// Wait blocks until the loop exits or ctx is done.
func (p *Poll) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// NewScheduler constructs a scheduler. Zero Interval, MaxAttempts and
// RequestTimeout fall back to the package defaults; a zero InitialDelay probes
// immediately.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("scheduler: fetcher is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("scheduler: store is required")
	}
	s := &Scheduler{
		fetcher:        opts.Fetcher,
		store:          opts.Store,
		initialDelay:   opts.InitialDelay,
		interval:       opts.Interval,
		maxAttempts:    opts.MaxAttempts,
		requestTimeout: opts.RequestTimeout,
		logger:         opts.Logger,
		active:         make(map[string]*Poll),
	}
	if s.initialDelay < 0 {
		s.initialDelay = 0
	}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = DefaultRequestTimeout
	}
	s.logger = infra.OrDiscard(s.logger)
	return s, nil
}

// MaxAttempts returns the configured attempt budget.
func (s *Scheduler) MaxAttempts() int {
	return s.maxAttempts
}

// Start begins polling the job with the given id. The loop lives until a
// terminal state, budget exhaustion, Cancel, or cancellation of ctx.
func (s *Scheduler) Start(ctx context.Context, id string) (*Poll, error) {
	job, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{ID: id, From: job.Status, To: domain.StatusProcessing, Detail: "job is terminal"}
	}

	s.mu.Lock()
	if _, running := s.active[id]; running {
		s.mu.Unlock()
		return nil, fmt.Errorf("scheduler: job %q: %w", id, domain.ErrAlreadyPolling)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p := &Poll{cancel: cancel, done: make(chan struct{})}
	s.active[id] = p
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.active, id)
			s.mu.Unlock()
			cancel()
			close(p.done)
		}()
		p.outcome = s.run(loopCtx, job)
		s.logger.Info().
			Str("job_id", id).
			Str("kind", string(job.Kind)).
			Str("state", string(p.outcome.State)).
			Int("attempts", p.outcome.Attempts).
			Msg("scheduler: poll finished")
	}()
	return p, nil
}

// Cancel stops polling the job. It reports whether a loop was running.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	p, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		p.Cancel()
	}
	return ok
}

// Active reports whether a loop is running for id.
func (s *Scheduler) Active(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// Stop cancels every running loop and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	polls := make([]*Poll, 0, len(s.active))
	for _, p := range s.active {
		polls = append(polls, p)
	}
	s.mu.Unlock()
	for _, p := range polls {
		p.Cancel()
		<-p.done
	}
}

func (s *Scheduler) run(ctx context.Context, job domain.GenerationJob) Outcome {
	out := Outcome{JobID: job.ID, Attempts: job.Attempts}
	log := s.logger.With().Str("job_id", job.ID).Str("kind", string(job.Kind)).Logger()

	if !sleep(ctx, s.initialDelay) {
		out.State = PollCancelled
		return out
	}

	for out.Attempts < s.maxAttempts {
		if ctx.Err() != nil {
			out.State = PollCancelled
			return out
		}
		out.Attempts++

		body, err := s.probe(ctx, job)
		if ctx.Err() != nil {
			out.State = PollCancelled
			return out
		}

		attempts := out.Attempts
		patch := domain.JobPatch{Attempts: &attempts}
		final := PollState("")
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Msg("scheduler: status probe failed")
		} else {
			res := Normalize(job.Kind, body)
			if !res.Matched {
				log.Debug().Int("attempt", attempts).Msg("scheduler: no status token recognized")
			}
			switch res.Status {
			case domain.StatusCompleted:
				if res.ResultURL == "" {
					final = PollFailed
					setFailure(&patch, domain.ReasonContractViolation, "upstream reported completion without a result url")
				} else {
					final = PollCompleted
					status := domain.StatusCompleted
					url := res.ResultURL
					patch.Status = &status
					patch.ResultURL = &url
				}
			case domain.StatusFailed:
				final = PollFailed
				setFailure(&patch, domain.ReasonUpstreamFailed, fmt.Sprintf("upstream status %s", res.Token))
			default:
				status := domain.StatusProcessing
				patch.Status = &status
			}
		}

		if _, err := s.store.Update(job.ID, patch); err != nil {
			log.Error().Err(err).Msg("scheduler: store update failed")
			out.State = PollFailed
			out.Err = err
			return out
		}
		if final != "" {
			out.State = final
			return out
		}
		if out.Attempts >= s.maxAttempts {
			break
		}
		if !sleep(ctx, s.interval) {
			out.State = PollCancelled
			return out
		}
	}

	patch := domain.JobPatch{}
	setFailure(&patch, domain.ReasonTimeout, fmt.Sprintf("no terminal status after %d attempts", out.Attempts))
	if _, err := s.store.Update(job.ID, patch); err != nil {
		log.Error().Err(err).Msg("scheduler: store update failed")
		out.Err = err
	}
	out.State = PollTimedOut
	return out
}

// probe issues one status request. The request is detached from loop
// cancellation so Cancel never aborts it mid-flight.
func (s *Scheduler) probe(ctx context.Context, job domain.GenerationJob) (map[string]any, error) {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.requestTimeout)
	defer cancel()
	return s.fetcher.FetchStatus(reqCtx, job.Kind, job.ID)
}

func setFailure(patch *domain.JobPatch, reason domain.FailureReason, msg string) {
	status := domain.StatusFailed
	patch.Status = &status
	patch.Reason = &reason
	patch.Error = &msg
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
