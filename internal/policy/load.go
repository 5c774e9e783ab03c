package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"engine/internal/domain"
)

//go:embed default.yaml
var defaultPolicy []byte

type fileClass struct {
	Include      []string `yaml:"include"`
	Capabilities []string `yaml:"capabilities"`
}

type file struct {
	CapabilitySets map[string][]string  `yaml:"capability_sets"`
	Classes        map[string]fileClass `yaml:"classes"`
}

// Default parses the embedded canonical table.
func Default() (*Snapshot, error) {
	return Parse(defaultPolicy)
}

// LoadFile parses the policy at path, or the embedded default when path is empty.
func LoadFile(path string) (*Snapshot, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML policy document. Class names must belong to the class
// enumeration and included sets must be declared.
func Parse(raw []byte) (*Snapshot, error) {
	var doc file
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("policy: decode: %w", err)
	}
	if len(doc.Classes) == 0 {
		return nil, fmt.Errorf("policy: no classes defined")
	}
	grants := make(map[domain.UserClass][]Capability, len(doc.Classes))
	for name, entry := range doc.Classes {
		class := domain.UserClass(strings.TrimSpace(name))
		if !class.Valid() {
			return nil, fmt.Errorf("policy: unknown user class %q", name)
		}
		var caps []Capability
		for _, setName := range entry.Include {
			set, ok := doc.CapabilitySets[setName]
			if !ok {
				return nil, fmt.Errorf("policy: class %s includes undefined set %q", name, setName)
			}
			for _, c := range set {
				caps = append(caps, Capability(strings.TrimSpace(c)))
			}
		}
		for _, c := range entry.Capabilities {
			caps = append(caps, Capability(strings.TrimSpace(c)))
		}
		grants[class] = caps
	}
	return NewSnapshot(grants), nil
}
