package generation

import (
	"context"
	"strings"

	"studio/internal/domain"
)

// recoverer injects a default for one parameter the upstream is known to
// reject submissions over.
type recoverer struct {
	param    string
	keywords []string
	apply    func(kind domain.Kind, body map[string]any) bool
}

var recoverers = []recoverer{
	{
		param:    "duration",
		keywords: []string{"duration"},
		apply: func(kind domain.Kind, body map[string]any) bool {
			d, ok := DefaultDurations[kind]
			if !ok {
				return false
			}
			body["duration"] = d
			return true
		},
	},
	{
		param:    "resolution",
		keywords: []string{"resolution"},
		apply: func(kind domain.Kind, body map[string]any) bool {
			if kind != domain.KindVideoImageToVideo && kind != domain.KindVideoTextToVideo {
				return false
			}
			body["resolution"] = DefaultResolution
			return true
		},
	},
}

// submitWithRecovery submits body and, when the rejection names a parameter a
// recoverer knows, retries once per parameter with the default injected.
func (o *Orchestrator) submitWithRecovery(ctx context.Context, kind domain.Kind, body map[string]any) (map[string]any, []string, error) {
	applied := map[string]bool{}
	var retries []string
	for {
		resp, err := o.upstream.Submit(ctx, kind, body)
		if err == nil {
			return resp, retries, nil
		}
		if ctx.Err() != nil {
			return nil, retries, &domain.SubmissionRejectedError{Reason: ctx.Err().Error(), Err: err}
		}
		rec := matchRecoverer(err.Error(), kind, body, applied)
		if rec == nil {
			return nil, retries, &domain.SubmissionRejectedError{Reason: err.Error(), Err: err}
		}
		applied[rec.param] = true
		retries = append(retries, rec.param)
		o.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("param", rec.param).
			Msg("orchestrator: retrying submission with default parameter")
	}
}

func matchRecoverer(msg string, kind domain.Kind, body map[string]any, applied map[string]bool) *recoverer {
	lower := strings.ToLower(msg)
	for i := range recoverers {
		rec := &recoverers[i]
		if applied[rec.param] {
			continue
		}
		for _, kw := range rec.keywords {
			if strings.Contains(lower, kw) && rec.apply(kind, body) {
				return rec
			}
		}
	}
	return nil
}
