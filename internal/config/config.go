// Package config loads the rolepatch deployment configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rolepatch/rolepatch"
)

// DefaultPath is where Load looks when no config path is given on the
// command line.
const DefaultPath = "rolepatch.yml"

// Defaults applied when the provider section leaves them unset.
const (
	DefaultProvider = "aws"
	DefaultRegion   = "us-east-1"
	DefaultStage    = "dev"
)

// Load reads a service configuration from path, fills provider defaults,
// and validates it. JSON configs parse too since JSON is a YAML subset.
func Load(path string) (*rolepatch.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var svc rolepatch.Service
	if err := yaml.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	ApplyDefaults(&svc)
	if err := Validate(&svc); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &svc, nil
}

// ApplyDefaults fills unset provider fields in place.
func ApplyDefaults(svc *rolepatch.Service) {
	if svc.Provider.Name == "" {
		svc.Provider.Name = DefaultProvider
	}
	if svc.Provider.Region == "" {
		svc.Provider.Region = DefaultRegion
	}
	if svc.Provider.Stage == "" {
		svc.Provider.Stage = DefaultStage
	}
}

// Validate rejects configurations rolepatch cannot act on. Policy ARNs are
// deliberately not checked here: grammar failures must surface from the
// attach pass itself so an aborted run keeps its documented shape.
func Validate(svc *rolepatch.Service) error {
	if svc.Provider.Name != DefaultProvider {
		return fmt.Errorf("unsupported provider %q: only %q templates carry IAM roles rolepatch understands", svc.Provider.Name, DefaultProvider)
	}
	return nil
}
