package leonardo

import (
	"net/url"
	"strings"

	"studio/internal/domain"
)

const initImagePath = "/init-image"

var submitPaths = map[domain.Kind]string{
	domain.KindImage:             "/generations",
	domain.KindTexture:           "/generations-texture",
	domain.KindVideoMotion:       "/generations-motion-svd",
	domain.KindVideoImageToVideo: "/generations-image-to-video",
	domain.KindVideoTextToVideo:  "/generations-text-to-video",
	domain.KindVideoUpscale:      "/generations-video-upscale",
}

// statusPaths are tried in order; a 404 moves on to the next candidate.
var statusPaths = map[domain.Kind][]string{
	domain.KindImage:             {"/generations/{id}"},
	domain.KindTexture:           {"/generations-texture/{id}", "/generations/{id}"},
	domain.KindVideoMotion:       {"/generations/{id}", "/motion-generations/{id}"},
	domain.KindVideoImageToVideo: {"/generations/{id}", "/generations-image-to-video/{id}", "/motion-generations/{id}"},
	domain.KindVideoTextToVideo:  {"/generations/{id}"},
	domain.KindVideoUpscale:      {"/generations/{id}"},
}

// StatusPaths returns the candidate status endpoints for kind with id filled in.
func StatusPaths(kind domain.Kind, id string) []string {
	templates, ok := statusPaths[kind]
	if !ok {
		templates = []string{"/generations/{id}"}
	}
	out := make([]string, len(templates))
	for i, tpl := range templates {
		out[i] = strings.ReplaceAll(tpl, "{id}", url.PathEscape(id))
	}
	return out
}
