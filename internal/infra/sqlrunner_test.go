package infra

import (
	"errors"
	"testing"

	"studio/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker(sqlinline.QUpsertGenerationJob)
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if len(marker) != 36 {
		t.Fatalf("marker = %q, want uuid", marker)
	}
	if body == "" {
		t.Fatalf("expected statement body")
	}
}

func TestExtractMarkerRejectsUntagged(t *testing.T) {
	if _, _, err := ExtractMarker("SELECT 1"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("err = %v, want ErrMissingMarker", err)
	}
}

func TestEveryInlineQueryHasMarker(t *testing.T) {
	for name, q := range sqlinline.All() {
		if _, _, err := ExtractMarker(q); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}
