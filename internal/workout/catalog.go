package workout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var ErrEmptyCatalog = errors.New("exercise catalog is empty")

// Exercise is a catalog entry. Progress is the fraction of the workout done once this exercise is reached.
type Exercise struct {
	Name        string  `yaml:"name" json:"name"`
	Icon        string  `yaml:"icon" json:"icon"`
	Description string  `yaml:"description" json:"description"`
	DefaultReps int     `yaml:"default_reps" json:"defaultReps"`
	Sets        int     `yaml:"sets" json:"setsRemaining"`
	Progress    float64 `yaml:"progress" json:"progress"`
}

// Catalog is the fixed, ordered exercise list of a workout.
type Catalog []Exercise

type catalogFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a catalog. Missing progress fractions are filled in evenly.
func ParseCatalog(data []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Exercises) == 0 {
		return nil, ErrEmptyCatalog
	}

	catalog := Catalog(file.Exercises)
	for i := range catalog {
		ex := &catalog[i]
		if ex.Name == "" {
			return nil, fmt.Errorf("exercise %d has no name", i+1)
		}
		if ex.DefaultReps < 1 {
			return nil, fmt.Errorf("exercise %q: default_reps must be positive", ex.Name)
		}
		if ex.Sets < 1 {
			return nil, fmt.Errorf("exercise %q: sets must be positive", ex.Name)
		}
		if ex.Progress <= 0 || ex.Progress > 1 {
			ex.Progress = float64(i+1) / float64(len(catalog))
		}
	}
	return catalog, nil
}

func (c Catalog) Last() int {
	return len(c) - 1
}
