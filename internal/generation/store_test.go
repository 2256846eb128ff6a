package generation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"studio/internal/domain"
)

func statusPtr(s domain.Status) *domain.Status { return &s }
func strPtr(s string) *string                 { return &s }
func intPtr(i int) *int                        { return &i }

func TestStoreAppendRejectsDuplicate(t *testing.T) {
	store := NewStore(StoreOptions{})
	if _, err := store.Append(domain.GenerationJob{ID: "job-1", Kind: domain.KindImage, Prompt: "first"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err := store.Append(domain.GenerationJob{ID: "job-1", Kind: domain.KindVideoMotion, Prompt: "second"})
	var dup *domain.DuplicateJobError
	if !errors.As(err, &dup) || dup.ID != "job-1" {
		t.Fatalf("err = %v, want DuplicateJobError", err)
	}
	if !errors.Is(err, domain.ErrDuplicateJob) {
		t.Fatalf("errors.Is(ErrDuplicateJob) = false")
	}
	jobs := store.List()
	if len(jobs) != 1 || jobs[0].Prompt != "first" {
		t.Fatalf("store = %#v, want only the first job", jobs)
	}
}

func TestStoreAppendForcesPending(t *testing.T) {
	store := NewStore(StoreOptions{})
	job, err := store.Append(domain.GenerationJob{ID: "a", Status: domain.StatusCompleted, ResultURL: "https://x", Attempts: 4})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if job.Status != domain.StatusPending || job.ResultURL != "" || job.Attempts != 0 {
		t.Fatalf("job = %#v", job)
	}
	if job.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
}

func TestStoreAppendRequiresID(t *testing.T) {
	if _, err := NewStore(StoreOptions{}).Append(domain.GenerationJob{ID: "  "}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestStoreUpdateNotFound(t *testing.T) {
	_, err := NewStore(StoreOptions{}).Update("missing", domain.JobPatch{Attempts: intPtr(1)})
	var nf *domain.JobNotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want JobNotFoundError", err)
	}
}

func TestStoreTerminalJobsAreFrozen(t *testing.T) {
	store := NewStore(StoreOptions{})
	store.Append(domain.GenerationJob{ID: "done"})
	if _, err := store.Update("done", domain.JobPatch{Status: statusPtr(domain.StatusCompleted), ResultURL: strPtr("https://x/a.png"), Attempts: intPtr(1)}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	patches := []domain.JobPatch{
		{Status: statusPtr(domain.StatusFailed)},
		{Status: statusPtr(domain.StatusProcessing)},
		{ResultURL: strPtr("https://x/other.png")},
		{Attempts: intPtr(2)},
	}
	for _, p := range patches {
		_, err := store.Update("done", p)
		var it *domain.InvalidTransitionError
		if !errors.As(err, &it) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	}
	job, _ := store.Get("done")
	if job.Status != domain.StatusCompleted || job.ResultURL != "https://x/a.png" || job.Attempts != 1 {
		t.Fatalf("terminal job changed: %#v", job)
	}
}

func TestStoreResultURLOnlyWithCompleted(t *testing.T) {
	store := NewStore(StoreOptions{})
	store.Append(domain.GenerationJob{ID: "a"})
	if _, err := store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusCompleted)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("completed without url: err = %v", err)
	}
	if _, err := store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusProcessing), ResultURL: strPtr("https://x")}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("url while processing: err = %v", err)
	}
	reason := domain.ReasonTimeout
	if _, err := store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusProcessing), Reason: &reason}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("reason while processing: err = %v", err)
	}
	job, _ := store.Get("a")
	if job.Status != domain.StatusPending {
		t.Fatalf("rejected updates must not apply: %#v", job)
	}
}

func TestStoreAttemptBudget(t *testing.T) {
	store := NewStore(StoreOptions{MaxAttempts: 3})
	store.Append(domain.GenerationJob{ID: "a"})
	if _, err := store.Update("a", domain.JobPatch{Attempts: intPtr(3)}); err != nil {
		t.Fatalf("update to budget: %v", err)
	}
	if _, err := store.Update("a", domain.JobPatch{Attempts: intPtr(4)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("over budget: err = %v", err)
	}
	if _, err := store.Update("a", domain.JobPatch{Attempts: intPtr(2)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("decrease: err = %v", err)
	}
}

func TestStoreCannotReturnToPending(t *testing.T) {
	store := NewStore(StoreOptions{})
	store.Append(domain.GenerationJob{ID: "a"})
	store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusProcessing)})
	if _, err := store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusPending)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(StoreOptions{Now: func() time.Time { now = now.Add(time.Second); return now }})
	for _, id := range []string{"a", "b", "c"} {
		store.Append(domain.GenerationJob{ID: id})
	}
	jobs := store.List()
	if jobs[0].ID != "c" || jobs[2].ID != "a" {
		t.Fatalf("order = %s,%s,%s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestStoreHooksSeeEveryChange(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []domain.Status
	)
	store := NewStore(StoreOptions{Hooks: []Hook{func(job domain.GenerationJob) {
		mu.Lock()
		seen = append(seen, job.Status)
		mu.Unlock()
	}}})
	store.Append(domain.GenerationJob{ID: "a"})
	store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusProcessing)})
	store.Update("a", domain.JobPatch{Status: statusPtr(domain.StatusFailed)})
	store.Update("a", domain.JobPatch{Attempts: intPtr(1)})

	want := []domain.Status{domain.StatusPending, domain.StatusProcessing, domain.StatusFailed}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestStoreConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store := NewStore(StoreOptions{})
	for i := 0; i < 20; i++ {
		store.Append(domain.GenerationJob{ID: string(rune('a' + i))})
	}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 1; n <= 10; n++ {
				if _, err := store.Update(id, domain.JobPatch{Attempts: intPtr(n)}); err != nil {
					t.Errorf("update %s: %v", id, err)
				}
			}
		}()
	}
	wg.Wait()
	for _, job := range store.List() {
		if job.Attempts != 10 {
			t.Fatalf("job %s attempts = %d, want 10", job.ID, job.Attempts)
		}
	}
}

func TestStoreRestoreRejectsTerminal(t *testing.T) {
	store := NewStore(StoreOptions{MaxAttempts: 5})
	if _, err := store.Restore(domain.GenerationJob{ID: "a", Status: domain.StatusFailed}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
	job, err := store.Restore(domain.GenerationJob{ID: "b", Status: domain.StatusProcessing, Attempts: 9})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if job.Status != domain.StatusProcessing || job.Attempts != 5 {
		t.Fatalf("job = %#v", job)
	}
}
