package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	defaultDownloadTimeout = 2 * time.Minute
	maxArchiveBytes        = 512 << 20
)

// ArchiverOptions configures an Archiver.
type ArchiverOptions struct {
	Store      *FileStore
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// Archiver copies completed generation results into a FileStore under
// generated/<kind>/<id><ext>.
type Archiver struct {
	store   *FileStore
	client  *http.Client
	timeout time.Duration
	logger  *infra.Logger
	wg      sync.WaitGroup
}

func NewArchiver(opts ArchiverOptions) (*Archiver, error) {
	if opts.Store == nil {
		return nil, errors.New("storage: archiver requires a file store")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &Archiver{store: opts.Store, client: client, timeout: timeout, logger: infra.OrDiscard(opts.Logger)}, nil
}

// Hook archives jobs as they complete. Downloads run in the background so
// the caller's transition is never held up; use Wait to drain them.
func (a *Archiver) Hook(job domain.GenerationJob) {
	if job.Status != domain.StatusCompleted || job.ResultURL == "" {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		key, err := a.Archive(ctx, job)
		if err != nil {
			a.logger.Error().Err(err).Str("job_id", job.ID).Msg("storage: archive result failed")
			return
		}
		a.logger.Info().Str("job_id", job.ID).Str("key", key).Msg("storage: result archived")
	}()
}

// Wait blocks until every background download has finished.
func (a *Archiver) Wait() {
	a.wg.Wait()
}

// Archive downloads the job result and stores it. Results already on disk
// are not fetched again.
func (a *Archiver) Archive(ctx context.Context, job domain.GenerationJob) (string, error) {
	if job.ResultURL == "" {
		return "", fmt.Errorf("storage: job %s has no result url", job.ID)
	}
	key := ArchiveKey(job)
	if a.store.Exists(key) {
		return key, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.ResultURL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: download %s: %w", job.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage: download %s: status %d", job.ID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: read %s: %w", job.ID, err)
	}
	if len(data) > maxArchiveBytes {
		return "", fmt.Errorf("storage: result for %s exceeds %d bytes", job.ID, maxArchiveBytes)
	}
	return a.store.Write(ctx, key, data)
}

// ArchiveKey is the storage key for a job's result.
func ArchiveKey(job domain.GenerationJob) string {
	return path.Join("generated", string(job.Kind), sanitizeID(job.ID)+extensionFor(job))
}

func extensionFor(job domain.GenerationJob) string {
	if u, err := url.Parse(job.ResultURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".mp4", ".webm", ".mov":
			return ext
		}
	}
	if job.Kind.IsVideo() {
		return ".mp4"
	}
	return ".png"
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
