package domain

import (
	"strings"
	"time"
)

// Kind enumerates the generation categories tracked by the service.
type Kind string

const (
	KindImage             Kind = "image"
	KindTexture           Kind = "texture"
	KindVideoMotion       Kind = "video-motion"
	KindVideoImageToVideo Kind = "video-image-to-video"
	KindVideoTextToVideo  Kind = "video-text-to-video"
	KindVideoUpscale      Kind = "video-upscale"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{
	KindImage,
	KindTexture,
	KindVideoMotion,
	KindVideoImageToVideo,
	KindVideoTextToVideo,
	KindVideoUpscale,
}

// ParseKind resolves free-form input into a supported kind.
func ParseKind(raw string) (Kind, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, k := range Kinds {
		if string(k) == value {
			return k, true
		}
	}
	return "", false
}

// IsVideo reports whether the kind produces a video result.
func (k Kind) IsVideo() bool {
	return strings.HasPrefix(string(k), "video-")
}

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions may occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FailureReason distinguishes why a job ended up failed.
type FailureReason string

const (
	ReasonNone              FailureReason = ""
	ReasonUpstreamFailed    FailureReason = "upstream_failed"
	ReasonTimeout           FailureReason = "timeout"
	ReasonContractViolation FailureReason = "contract_violation"
	ReasonSubmission        FailureReason = "submission"
)

// GenerationJob tracks one request to the upstream generation service until
// it reaches a terminal outcome.
type GenerationJob struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Prompt    string        `json:"prompt"`
	Status    Status        `json:"status"`
	ResultURL string        `json:"result_url,omitempty"`
	Attempts  int           `json:"attempts"`
	Reason    FailureReason `json:"reason,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// JobPatch is a partial update applied to a job. Nil fields are left untouched.
type JobPatch struct {
	Status    *Status
	ResultURL *string
	Attempts  *int
	Reason    *FailureReason
	Error     *string
}
