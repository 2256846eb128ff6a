package brainstorm

import "testing"

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"label", "Some intro\nTitle: Neon Harbor\nmore", "Neon Harbor"},
		{"bold label", "**Title:** *Salt and Static*", "Salt and Static"},
		{"heading", "## The Quiet Orbit\n\nLogline...", "The Quiet Orbit"},
		{"quoted first line", `I propose "Paper Lanterns" as the film.` + "\nIt follows...", "Paper Lanterns"},
		{"quoted later line ignored", "No title here\n\"Hidden\"", ""},
		{"none", "just some words", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractTitle(tc.text); got != tc.want {
				t.Fatalf("ExtractTitle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractGenre(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Genre: Neo-noir\nA detective...", "Neo-noir"},
		{"**Genre:** Sci-Fi", "Sci-Fi"},
		{"A tense thriller with horror elements", "thriller"},
		{"Part horror, part comedy.", "horror"},
		{"A dramatic tale", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractGenre(tc.text); got != tc.want {
			t.Fatalf("ExtractGenre(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestCleanMarkdown(t *testing.T) {
	in := "# Title\n\n" +
		"Some **bold** and *italic* and `code` with a [link](https://x.y).\n\n\n\n" +
		"> quoted line\n" +
		"- first\n" +
		"2. second\n" +
		"```go\nfmt.Println()\n```\n" +
		"---\n"
	want := "Title\n\n" +
		"Some bold and italic and code with a link.\n\n" +
		"quoted line\n" +
		"first\n" +
		"second\n" +
		"\n" +
		"fmt.Println()"
	if got := CleanMarkdown(in); got != want {
		t.Fatalf("CleanMarkdown =\n%q\nwant\n%q", got, want)
	}
}
