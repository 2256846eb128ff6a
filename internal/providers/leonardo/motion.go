package leonardo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MotionControls maps motion-control names to the upstream element UUIDs.
// The table is supplied by configuration; nothing is hardcoded.
type MotionControls map[string]string

type motionControlsFile struct {
	MotionControls map[string]string `yaml:"motion_controls"`
}

// LoadMotionControls reads a YAML file of the form:
//
//	motion_controls:
//	  dolly_in: 3a1f...
func LoadMotionControls(path string) (MotionControls, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leonardo: read motion controls: %w", err)
	}
	return ParseMotionControls(data)
}

// ParseMotionControls decodes the YAML document and normalizes the names.
func ParseMotionControls(data []byte) (MotionControls, error) {
	var file motionControlsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("leonardo: parse motion controls: %w", err)
	}
	out := make(MotionControls, len(file.MotionControls))
	for name, id := range file.MotionControls {
		key := normalizeControlName(name)
		id = strings.TrimSpace(id)
		if key == "" || id == "" {
			return nil, fmt.Errorf("leonardo: motion control %q has an empty name or id", name)
		}
		out[key] = id
	}
	return out, nil
}

// Resolve returns the UUID for name, matching case-insensitively and
// treating spaces and dashes like underscores.
func (m MotionControls) Resolve(name string) (string, bool) {
	id, ok := m[normalizeControlName(name)]
	return id, ok
}

// Names lists the configured control names.
func (m MotionControls) Names() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func normalizeControlName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
