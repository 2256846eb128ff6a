package generation

import (
	"strings"
	"sync"
	"time"

	"studio/internal/domain"
)

// Hook observes every successful append or update. It receives a copy of the
// job and runs outside the store lock.
type Hook func(job domain.GenerationJob)

// StoreOptions configures a Store.
type StoreOptions struct {
	// MaxAttempts caps the attempts counter. Zero disables the check.
	MaxAttempts int
	Hooks       []Hook
	Now         func() time.Time
}

// Store is the keyed collection of generation jobs. Each update is applied
// under a single lock acquisition so concurrent writers cannot lose updates.
type Store struct {
	mu          sync.RWMutex
	jobs        map[string]*domain.GenerationJob
	order       []string
	maxAttempts int
	hooks       []Hook
	now         func() time.Time
}

// NewStore constructs an empty store.
func NewStore(opts StoreOptions) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		jobs:        make(map[string]*domain.GenerationJob),
		maxAttempts: opts.MaxAttempts,
		hooks:       append([]Hook(nil), opts.Hooks...),
		now:         now,
	}
}

// AddHook registers an observer. Hooks added after jobs exist only see later changes.
func (s *Store) AddHook(h Hook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// Append inserts a new job in the pending state.
func (s *Store) Append(job domain.GenerationJob) (domain.GenerationJob, error) {
	job.ID = strings.TrimSpace(job.ID)
	if job.ID == "" {
		return domain.GenerationJob{}, domain.ErrInvalidRequest
	}
	job.Status = domain.StatusPending
	job.ResultURL = ""
	job.Attempts = 0
	job.Reason = domain.ReasonNone
	job.Error = ""
	return s.insert(job)
}

// Restore inserts a previously persisted, non-terminal job as-is so polling
// can resume after a restart.
func (s *Store) Restore(job domain.GenerationJob) (domain.GenerationJob, error) {
	if job.Status.IsTerminal() {
		return domain.GenerationJob{}, &domain.InvalidTransitionError{ID: job.ID, From: job.Status, To: job.Status, Detail: "cannot restore terminal job"}
	}
	if job.Status == "" {
		job.Status = domain.StatusPending
	}
	if s.maxAttempts > 0 && job.Attempts > s.maxAttempts {
		job.Attempts = s.maxAttempts
	}
	return s.insert(job)
}

func (s *Store) insert(job domain.GenerationJob) (domain.GenerationJob, error) {
	s.mu.Lock()
	if _, exists := s.jobs[job.ID]; exists {
		s.mu.Unlock()
		return domain.GenerationJob{}, &domain.DuplicateJobError{ID: job.ID}
	}
	now := s.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	stored := job
	s.jobs[job.ID] = &stored
	s.order = append(s.order, job.ID)
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, job)
	return job, nil
}

// Update applies patch to the job with the given id.
func (s *Store) Update(id string, patch domain.JobPatch) (domain.GenerationJob, error) {
	s.mu.Lock()
	current, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return domain.GenerationJob{}, &domain.JobNotFoundError{ID: id}
	}
	next := *current
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.ResultURL != nil {
		next.ResultURL = strings.TrimSpace(*patch.ResultURL)
	}
	if patch.Attempts != nil {
		next.Attempts = *patch.Attempts
	}
	if patch.Reason != nil {
		next.Reason = *patch.Reason
	}
	if patch.Error != nil {
		next.Error = *patch.Error
	}
	if err := s.validate(*current, next); err != nil {
		s.mu.Unlock()
		return domain.GenerationJob{}, err
	}
	next.UpdatedAt = s.now()
	*current = next
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, next)
	return next, nil
}

func (s *Store) validate(from, to domain.GenerationJob) error {
	invalid := func(detail string) error {
		return &domain.InvalidTransitionError{ID: from.ID, From: from.Status, To: to.Status, Detail: detail}
	}
	if from.Status.IsTerminal() {
		return invalid("job is terminal")
	}
	switch to.Status {
	case domain.StatusPending:
		if from.Status != domain.StatusPending {
			return invalid("cannot return to pending")
		}
	case domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed:
	default:
		return invalid("unknown status")
	}
	if to.Status == domain.StatusCompleted && to.ResultURL == "" {
		return invalid("completed requires a result url")
	}
	if to.Status != domain.StatusCompleted && to.ResultURL != "" {
		return invalid("result url is only set on completion")
	}
	if to.Status != domain.StatusFailed && to.Reason != domain.ReasonNone {
		return invalid("failure reason is only set on failure")
	}
	if to.Attempts < from.Attempts {
		return invalid("attempts cannot decrease")
	}
	if s.maxAttempts > 0 && to.Attempts > s.maxAttempts {
		return invalid("attempt budget exceeded")
	}
	return nil
}

func (s *Store) notify(hooks []Hook, job domain.GenerationJob) {
	for _, h := range hooks {
		h(job)
	}
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (domain.GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.GenerationJob{}, &domain.JobNotFoundError{ID: id}
	}
	return *job, nil
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []domain.GenerationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GenerationJob, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.jobs[s.order[i]])
	}
	return out
}
