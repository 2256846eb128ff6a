package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	DefaultSettleDelay    = 2 * time.Second
	DefaultMotionStrength = 5
	DefaultResolution     = "RESOLUTION_720"
)

// DefaultDurations holds the duration injected when the upstream rejects a
// submission for a missing or invalid duration.
var DefaultDurations = map[domain.Kind]int{
	domain.KindVideoImageToVideo: 5,
	domain.KindVideoTextToVideo:  8,
	domain.KindVideoMotion:       4,
}

// UploadTarget is a direct-storage handoff returned by the asset upload step.
type UploadTarget struct {
	URL    string
	Fields map[string]string
}

// UploadTicket is the result of registering an asset upstream.
type UploadTicket struct {
	AssetID string
	Target  *UploadTarget
}

// Upstream is the submission side of the generation service.
type Upstream interface {
	InitUpload(ctx context.Context, extension string) (UploadTicket, error)
	UploadToStorage(ctx context.Context, target UploadTarget, filename string, data []byte) error
	Submit(ctx context.Context, kind domain.Kind, body map[string]any) (map[string]any, error)
}

// MotionControlResolver maps a motion-control name to its upstream identifier.
type MotionControlResolver interface {
	Resolve(name string) (string, bool)
}

// SubmitRequest carries the caller inputs for one generation.
type SubmitRequest struct {
	Kind   domain.Kind
	Prompt string

	// Asset, when set, is uploaded first and used as the source image.
	Asset          []byte
	AssetExtension string
	// ImageID references an image already known upstream.
	ImageID          string
	ImageIsGenerated bool

	EndFrameImageID    string
	MotionStrength     int
	Resolution         string
	Duration           int
	MotionControl      string
	SourceGenerationID string
	ModelAssetID       string
	ModelID            string
	Width              int
	Height             int
	NumImages          int
}

// Submission is what a successful Submit hands back.
type Submission struct {
	Job     domain.GenerationJob
	AssetID string
	Retries []string
	Poll    *Poll
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Upstream       Upstream
	Store          *Store
	Scheduler      *Scheduler
	MotionControls MotionControlResolver
	SettleDelay    time.Duration
	Logger         *infra.Logger
}

// Orchestrator runs the kind-specific submission steps and hands the
// resulting job to the scheduler.
type Orchestrator struct {
	upstream       Upstream
	store          *Store
	scheduler      *Scheduler
	motionControls MotionControlResolver
	settleDelay    time.Duration
	logger         *infra.Logger
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Upstream == nil {
		return nil, errors.New("orchestrator: upstream is required")
	}
	if opts.Store == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	o := &Orchestrator{
		upstream:       opts.Upstream,
		store:          opts.Store,
		scheduler:      opts.Scheduler,
		motionControls: opts.MotionControls,
		settleDelay:    opts.SettleDelay,
		logger:         opts.Logger,
	}
	if o.settleDelay < 0 {
		o.settleDelay = 0
	}
	o.logger = infra.OrDiscard(o.logger)
	return o, nil
}

// Submit performs upload, submission and adaptive retry, records the job and
// starts polling it. Polling outlives ctx cancellation; stop it through the
// scheduler.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	log := o.logger.With().Str("kind", string(req.Kind)).Logger()

	akUUID, err := o.resolveMotionControl(req)
	if err != nil {
		return nil, err
	}

	imageID := strings.TrimSpace(req.ImageID)
	uploaded := false
	if len(req.Asset) > 0 {
		id, err := o.upload(ctx, req)
		if err != nil {
			return nil, err
		}
		imageID = id
		uploaded = true
		log.Debug().Str("asset_id", id).Msg("orchestrator: asset ready")
	}

	body := o.buildBody(req, imageID, uploaded, akUUID)

	resp, retries, err := o.submitWithRecovery(ctx, req.Kind, body)
	if err != nil {
		return nil, err
	}

	jobID, ok := ExtractJobID(req.Kind, resp)
	if !ok {
		return nil, fmt.Errorf("orchestrator: %w", domain.ErrNoJobID)
	}

	if _, err := o.store.Append(domain.GenerationJob{ID: jobID, Kind: req.Kind, Prompt: req.Prompt}); err != nil {
		return nil, fmt.Errorf("orchestrator: record job: %w", err)
	}
	processing := domain.StatusProcessing
	job, err := o.store.Update(jobID, domain.JobPatch{Status: &processing})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: mark processing: %w", err)
	}
	log.Info().Str("job_id", jobID).Strs("retries", retries).Msg("orchestrator: job submitted")

	sub := &Submission{Job: job, AssetID: imageID, Retries: retries}
	if o.scheduler != nil {
		poll, err := o.scheduler.Start(context.WithoutCancel(ctx), jobID)
		if err != nil {
			return sub, fmt.Errorf("orchestrator: start polling: %w", err)
		}
		sub.Poll = poll
	}
	return sub, nil
}

func (o *Orchestrator) upload(ctx context.Context, req SubmitRequest) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(req.AssetExtension)), ".")
	if ext == "" {
		ext = "png"
	}
	ticket, err := o.upstream.InitUpload(ctx, ext)
	if err != nil {
		return "", fmt.Errorf("orchestrator: %w: %w", domain.ErrUploadFailed, err)
	}
	if strings.TrimSpace(ticket.AssetID) == "" {
		return "", fmt.Errorf("orchestrator: %w: no asset id returned", domain.ErrUploadFailed)
	}
	if ticket.Target != nil {
		if err := o.upstream.UploadToStorage(ctx, *ticket.Target, "asset."+ext, req.Asset); err != nil {
			return "", fmt.Errorf("orchestrator: %w: %w", domain.ErrSecondaryUploadFailed, err)
		}
		if !sleep(ctx, o.settleDelay) {
			return "", ctx.Err()
		}
	}
	return ticket.AssetID, nil
}

func validate(req SubmitRequest) error {
	invalid := func(msg string) error {
		return fmt.Errorf("orchestrator: %w: %s", domain.ErrInvalidRequest, msg)
	}
	hasImage := len(req.Asset) > 0 || strings.TrimSpace(req.ImageID) != ""
	prompt := strings.TrimSpace(req.Prompt)
	switch req.Kind {
	case domain.KindImage, domain.KindVideoTextToVideo:
		if prompt == "" {
			return invalid("prompt is required")
		}
	case domain.KindTexture:
		if prompt == "" {
			return invalid("prompt is required")
		}
		if strings.TrimSpace(req.ModelAssetID) == "" {
			return invalid("model asset id is required")
		}
	case domain.KindVideoMotion:
		if !hasImage {
			return invalid("source image is required")
		}
	case domain.KindVideoImageToVideo:
		if prompt == "" {
			return invalid("prompt is required")
		}
		if !hasImage {
			return invalid("source image is required")
		}
	case domain.KindVideoUpscale:
		if strings.TrimSpace(req.SourceGenerationID) == "" {
			return invalid("source generation id is required")
		}
	default:
		return invalid(fmt.Sprintf("unsupported kind %q", req.Kind))
	}
	return nil
}

// resolveMotionControl returns the element UUID for the requested motion
// control, or "" when none was asked for.
func (o *Orchestrator) resolveMotionControl(req SubmitRequest) (string, error) {
	name := strings.TrimSpace(req.MotionControl)
	if name == "" || (req.Kind != domain.KindVideoImageToVideo && req.Kind != domain.KindVideoTextToVideo) {
		return "", nil
	}
	if o.motionControls == nil {
		return "", fmt.Errorf("orchestrator: %w: motion controls are not configured", domain.ErrInvalidRequest)
	}
	akUUID, ok := o.motionControls.Resolve(name)
	if !ok {
		return "", fmt.Errorf("orchestrator: %w: unknown motion control %q", domain.ErrInvalidRequest, name)
	}
	return akUUID, nil
}

func (o *Orchestrator) buildBody(req SubmitRequest, imageID string, uploaded bool, akUUID string) map[string]any {
	prompt := strings.TrimSpace(req.Prompt)
	body := map[string]any{}
	imageType := "GENERATED"
	if uploaded || !req.ImageIsGenerated {
		imageType = "UPLOADED"
	}

	switch req.Kind {
	case domain.KindImage:
		body["prompt"] = prompt
		if req.ModelID != "" {
			body["modelId"] = req.ModelID
		}
		if req.Width > 0 && req.Height > 0 {
			body["width"] = req.Width
			body["height"] = req.Height
		}
		if req.NumImages > 0 {
			body["num_images"] = req.NumImages
		}
		if imageID != "" {
			body["init_image_id"] = imageID
		}
	case domain.KindTexture:
		body["prompt"] = prompt
		body["modelAssetId"] = strings.TrimSpace(req.ModelAssetID)
	case domain.KindVideoMotion:
		strength := req.MotionStrength
		if strength <= 0 {
			strength = DefaultMotionStrength
		}
		body["imageId"] = imageID
		body["motionStrength"] = strength
		body["isInitImage"] = imageType == "UPLOADED"
	case domain.KindVideoImageToVideo, domain.KindVideoTextToVideo:
		body["prompt"] = prompt
		if req.Kind == domain.KindVideoImageToVideo {
			body["imageId"] = imageID
			body["imageType"] = imageType
			if end := strings.TrimSpace(req.EndFrameImageID); end != "" {
				body["endFrameImage"] = map[string]any{"id": end, "type": "GENERATED"}
			}
		}
		if req.Resolution != "" {
			body["resolution"] = req.Resolution
		}
		if req.Duration > 0 {
			body["duration"] = req.Duration
		}
		if akUUID != "" {
			body["elements"] = []any{map[string]any{"akUUID": akUUID, "weight": 1}}
		}
	case domain.KindVideoUpscale:
		body["sourceGenerationId"] = strings.TrimSpace(req.SourceGenerationID)
	}
	return body
}
