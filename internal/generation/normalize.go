package generation

import (
	"golang.org/x/text/cases"

	"studio/internal/domain"
)

// Probe lists the field paths inspected for one kind, in priority order.
type Probe struct {
	StatusPaths []string
	URLPaths    []string
}

// Result is the canonical reading of an upstream status payload.
type Result struct {
	Status    domain.Status
	ResultURL string
	// Matched is false when no status path yielded a token.
	Matched bool
	Token   string
}

var (
	commonStatusPaths = []string{"status", "state", "job.status"}
	commonURLPaths    = []string{"url", "videoUrl", "video_url"}

	completedTokens = map[string]struct{}{"complete": {}, "completed": {}, "succeeded": {}}
	failedTokens    = map[string]struct{}{"failed": {}, "error": {}}
)

var probes = map[domain.Kind]Probe{
	domain.KindImage: {
		StatusPaths: []string{"generations_by_pk.status", "generations.0.status", "sdGenerationJob.status"},
		URLPaths:    []string{"generations_by_pk.generated_images.0.url", "generations.0.generated_images.0.url"},
	},
	domain.KindTexture: {
		StatusPaths: []string{"texture_generations_by_pk.status", "generations_by_pk.status", "generations.0.status"},
		URLPaths: []string{
			"texture_generations_by_pk.images.0.url",
			"generations_by_pk.generated_images.0.url",
			"generations.0.generated_images.0.url",
		},
	},
	domain.KindVideoMotion: {
		StatusPaths: []string{"generations_by_pk.status", "motionVideoGenerationJob.status", "generations.0.status"},
		URLPaths: []string{
			"generations_by_pk.generated_images.0.motionMP4URL",
			"motionVideoGenerationJob.videoUrl",
			"motionVideoGenerationJob.url",
			"generations.0.generated_images.0.motionMP4URL",
		},
	},
	domain.KindVideoImageToVideo: {
		StatusPaths: []string{"imageToVideoGenerationJob.status", "motionVideoGenerationJob.status", "generations_by_pk.status"},
		URLPaths: []string{
			"imageToVideoGenerationJob.videoUrl",
			"imageToVideoGenerationJob.url",
			"motionVideoGenerationJob.videoUrl",
			"generations_by_pk.generated_images.0.motionMP4URL",
		},
	},
	domain.KindVideoTextToVideo: {
		StatusPaths: []string{"textToVideoGenerationJob.status", "motionVideoGenerationJob.status", "generations_by_pk.status"},
		URLPaths: []string{
			"textToVideoGenerationJob.videoUrl",
			"textToVideoGenerationJob.url",
			"motionVideoGenerationJob.videoUrl",
			"generations_by_pk.generated_images.0.motionMP4URL",
		},
	},
	domain.KindVideoUpscale: {
		StatusPaths: []string{"videoUpscaleGenerationJob.status", "generations_by_pk.status"},
		URLPaths: []string{
			"videoUpscaleGenerationJob.videoUrl",
			"videoUpscaleGenerationJob.url",
			"generations_by_pk.generated_images.0.motionMP4URL",
		},
	},
}

// ProbeFor returns the probe table for kind with the shared top-level paths appended.
func ProbeFor(kind domain.Kind) Probe {
	p := probes[kind]
	return Probe{
		StatusPaths: append(append([]string(nil), p.StatusPaths...), commonStatusPaths...),
		URLPaths:    append(append([]string(nil), p.URLPaths...), commonURLPaths...),
	}
}

// Normalize maps a raw status payload into a canonical Result. It never
// reports completed unless a completion token was found.
func Normalize(kind domain.Kind, body map[string]any) Result {
	if body == nil {
		return Result{Status: domain.StatusProcessing}
	}
	probe := ProbeFor(kind)
	token, ok := lookupString(body, probe.StatusPaths...)
	if !ok {
		return Result{Status: domain.StatusProcessing}
	}
	res := Result{Status: classify(token), Matched: true, Token: token}
	if res.Status == domain.StatusCompleted {
		res.ResultURL, _ = lookupString(body, probe.URLPaths...)
	}
	return res
}

func classify(token string) domain.Status {
	folded := cases.Fold().String(token)
	if _, ok := completedTokens[folded]; ok {
		return domain.StatusCompleted
	}
	if _, ok := failedTokens[folded]; ok {
		return domain.StatusFailed
	}
	return domain.StatusProcessing
}
