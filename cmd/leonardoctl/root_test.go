package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"studio/internal/infra"
	"studio/internal/providers/leonardo"
)

func runCmd(t *testing.T, cfg *infra.Config, args ...string) (string, error) {
	t.Helper()
	logger := infra.OrDiscard(nil)
	root := NewRootCmd(cfg, logger)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd(&infra.Config{}, infra.OrDiscard(nil))
	for _, name := range []string{"submit", "status", "key"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	_, err := runCmd(t, &infra.Config{}, "submit", "--kind", "opera", "--prompt", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("err = %v", err)
	}
}

func TestStatusRequiresAPIKey(t *testing.T) {
	_, err := runCmd(t, &infra.Config{}, "status", "gen-1", "--kind", "image")
	if !errors.Is(err, leonardo.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestKeySetRequiresDatabase(t *testing.T) {
	_, err := runCmd(t, &infra.Config{}, "key", "set", "abc")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err = %v", err)
	}
}
