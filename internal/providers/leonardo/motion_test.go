package leonardo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMotionControls(t *testing.T) {
	controls, err := ParseMotionControls([]byte(`
motion_controls:
  Dolly In: 11111111-2222-3333-4444-555555555555
  crane-up: aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee
`))
	if err != nil {
		t.Fatalf("ParseMotionControls: %v", err)
	}
	cases := map[string]string{
		"dolly_in": "11111111-2222-3333-4444-555555555555",
		"DOLLY IN": "11111111-2222-3333-4444-555555555555",
		"crane_up": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
	}
	for name, want := range cases {
		got, ok := controls.Resolve(name)
		if !ok || got != want {
			t.Fatalf("Resolve(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	if _, ok := controls.Resolve("orbit"); ok {
		t.Fatalf("unknown control should not resolve")
	}
}

func TestParseMotionControlsRejectsEmptyID(t *testing.T) {
	if _, err := ParseMotionControls([]byte("motion_controls:\n  orbit: \"\"\n")); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestLoadMotionControls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion.yaml")
	if err := os.WriteFile(path, []byte("motion_controls:\n  orbit_left: 0b1c0000-aaaa-bbbb-cccc-ddddeeeeffff\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	controls, err := LoadMotionControls(path)
	if err != nil {
		t.Fatalf("LoadMotionControls: %v", err)
	}
	if id, _ := controls.Resolve("orbit left"); id != "0b1c0000-aaaa-bbbb-cccc-ddddeeeeffff" {
		t.Fatalf("Resolve = %q", id)
	}
}
