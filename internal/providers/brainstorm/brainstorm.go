package brainstorm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	staticProviderName = "static"
	openAIProviderName = "openai"
)

// Request seeds one brainstorming round.
type Request struct {
	Seed   string `json:"seed"`
	Genre  string `json:"genre,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// Idea is a brainstormed story concept.
type Idea struct {
	Title          string `json:"title"`
	Genre          string `json:"genre"`
	Text           string `json:"text"`
	Plain          string `json:"plain"`
	Provider       string `json:"provider"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Brainstormer expands a seed into a story idea.
type Brainstormer interface {
	Brainstorm(ctx context.Context, req Request) (*Idea, error)
}

// StaticBrainstormer produces a templated idea without calling any model.
type StaticBrainstormer struct{}

func NewStaticBrainstormer() *StaticBrainstormer {
	return &StaticBrainstormer{}
}

func (s *StaticBrainstormer) Brainstorm(ctx context.Context, req Request) (*Idea, error) {
	c := cases.Title(language.Und)
	seed := coalesce(req.Seed, "an unlikely friendship")
	genre := strings.ToLower(coalesce(req.Genre, ExtractGenre(seed), "drama"))
	title := c.String(firstWords(seed, 4))

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "# %s\n\n", title)
	fmt.Fprintf(sb, "**Genre:** %s\n\n", c.String(genre))
	fmt.Fprintf(sb, "## Logline\n\nA %s story about %s.\n\n", genre, strings.TrimSuffix(seed, "."))
	sb.WriteString("## Beats\n\n")
	sb.WriteString("- The ordinary world is disturbed.\n")
	sb.WriteString("- A choice locks the hero into the conflict.\n")
	sb.WriteString("- Everything is lost, then one thing is regained.\n")

	return finish(sb.String(), staticProviderName), nil
}

// finish derives the structured fields from raw idea text.
func finish(text, provider string) *Idea {
	return &Idea{
		Title:    ExtractTitle(text),
		Genre:    ExtractGenre(text),
		Text:     text,
		Plain:    CleanMarkdown(text),
		Provider: provider,
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Trim(strings.Join(words, " "), ".,;:!?")
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

var _ Brainstormer = (*StaticBrainstormer)(nil)
