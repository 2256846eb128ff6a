package generation

import "studio/internal/domain"

var commonIDPaths = []string{"generationId", "id", "jobId"}

var idPaths = map[domain.Kind][]string{
	domain.KindImage:   {"sdGenerationJob.generationId", "generation.id"},
	domain.KindTexture: {"textureGenerationJob.id", "textureGenerationJob.generationId"},
	domain.KindVideoMotion: {
		"motionSvdGenerationJob.generationId",
		"motionVideoGenerationJob.generationId",
	},
	domain.KindVideoImageToVideo: {
		"motionVideoGenerationJob.generationId",
		"imageToVideoGenerationJob.generationId",
		"imageToVideoGenerationJob.id",
	},
	domain.KindVideoTextToVideo: {
		"textToVideoGenerationJob.generationId",
		"motionVideoGenerationJob.generationId",
		"textToVideoGenerationJob.id",
	},
	domain.KindVideoUpscale: {
		"videoUpscaleGenerationJob.generationId",
		"motionVideoGenerationJob.generationId",
		"videoUpscaleGenerationJob.id",
	},
}

// ExtractJobID finds the upstream job identifier in a submission response.
func ExtractJobID(kind domain.Kind, body map[string]any) (string, bool) {
	paths := append(append([]string(nil), idPaths[kind]...), commonIDPaths...)
	return lookupString(body, paths...)
}
