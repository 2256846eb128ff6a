package brainstorm

import (
	"regexp"
	"strings"
)

var (
	titleLabelRe  = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*|__)?title(?:\*\*|__)?[ \t]*:[ \t]*(?:\*\*|__)?[ \t]*(.+?)[ \t]*$`)
	headingRe     = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	quotedRe      = regexp.MustCompile(`["“]([^"”]{2,120})["”]`)
	genreLabelRe  = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*|__)?genre(?:\*\*|__)?[ \t]*:[ \t]*(?:\*\*|__)?[ \t]*(.+?)[ \t]*$`)
	fenceRe       = regexp.MustCompile("(?m)^[ \\t]*```[^\\n]*$")
	inlineCodeRe  = regexp.MustCompile("`([^`]*)`")
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	boldRe        = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicStarRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnderRe = regexp.MustCompile(`(^|\W)_([^_\n]+)_(\W|$)`)
	headingMarkRe = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	blockquoteRe  = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	bulletRe      = regexp.MustCompile(`(?m)^([ \t]*)(?:[-*+]|\d+[.)])[ \t]+`)
	ruleRe        = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t]*$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	trailingWSRe  = regexp.MustCompile(`(?m)[ \t]+$`)
)

// knownGenres are matched as whole words; the earliest mention wins.
var knownGenres = []string{
	"drama", "comedy", "thriller", "horror", "sci-fi", "fantasy",
	"romance", "action", "documentary", "animation", "mystery", "adventure",
}

// ExtractTitle pulls a title from free-form idea text. It tries a "Title:"
// label, then a markdown heading, then a quoted phrase on the first line.
func ExtractTitle(text string) string {
	if m := titleLabelRe.FindStringSubmatch(text); m != nil {
		if t := stripEmphasis(m[1]); t != "" {
			return t
		}
	}
	if m := headingRe.FindStringSubmatch(text); m != nil {
		if t := stripEmphasis(m[1]); t != "" {
			return t
		}
	}
	first := strings.TrimSpace(text)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if m := quotedRe.FindStringSubmatch(first); m != nil {
		return stripEmphasis(m[1])
	}
	return ""
}

// ExtractGenre returns the labelled genre, else the first known genre word
// mentioned, else "".
func ExtractGenre(text string) string {
	if m := genreLabelRe.FindStringSubmatch(text); m != nil {
		if g := stripEmphasis(m[1]); g != "" {
			return g
		}
	}
	lower := strings.ToLower(text)
	best, bestIdx := "", -1
	for _, g := range knownGenres {
		idx := indexWord(lower, g)
		if idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = g, idx
		}
	}
	return best
}

// CleanMarkdown renders markdown as plain text suitable for export.
func CleanMarkdown(text string) string {
	out := strings.ReplaceAll(text, "\r\n", "\n")
	out = fenceRe.ReplaceAllString(out, "")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = imageRe.ReplaceAllString(out, "$1")
	out = linkRe.ReplaceAllString(out, "$1")
	out = ruleRe.ReplaceAllString(out, "")
	out = headingMarkRe.ReplaceAllString(out, "")
	out = blockquoteRe.ReplaceAllString(out, "")
	out = bulletRe.ReplaceAllString(out, "$1")
	out = boldRe.ReplaceAllString(out, "$2")
	out = italicStarRe.ReplaceAllString(out, "$1")
	out = italicUnderRe.ReplaceAllString(out, "$1$2$3")
	out = trailingWSRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func stripEmphasis(s string) string {
	s = boldRe.ReplaceAllString(s, "$2")
	s = italicStarRe.ReplaceAllString(s, "$1")
	s = strings.Trim(strings.TrimSpace(s), "*_#\"“”' ")
	return strings.TrimSpace(s)
}

// indexWord finds word in s at a word boundary.
func indexWord(s, word string) int {
	from := 0
	for {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(word)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
