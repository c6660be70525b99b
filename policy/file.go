package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a route policy:
//
//	roles: [viewer, user, admin, super_admin]
//	routes:
//	  - prefix: /admin
//	    min_role: admin
//
// An empty roles list selects the default ladder.
type File struct {
	Roles  []Role `yaml:"roles"`
	Routes []Rule `yaml:"routes"`
}

// Parse decodes a YAML policy document.
func Parse(data []byte) (*RoutePolicy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return f.Build()
}

// LoadFile reads and parses the YAML policy at path.
func LoadFile(path string) (*RoutePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Build turns f into a RoutePolicy.
func (f File) Build() (*RoutePolicy, error) {
	ladder := DefaultLadder()
	if len(f.Roles) > 0 {
		ladder = NewLadder()
		for _, r := range f.Roles {
			if err := ladder.Register(r); err != nil {
				return nil, err
			}
		}
		ladder.Freeze()
	}
	return NewRoutePolicy(ladder, f.Routes)
}
