package workout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Workouts []Workout `yaml:"workouts"`
}

// LoadFile reads workout definitions from a YAML file of the form
//
//	workouts:
//	  - name: Tabata
//	    sets: 2
//	    set_rest: 60
//	    rounds:
//	      - {exercise: Squats, work: 20, rest: 10}
//
// Missing IDs are generated and a missing sets key means one set. Every workout is validated.
func LoadFile(path string) ([]Workout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workout file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML workout definitions.
func Parse(raw []byte) ([]Workout, error) {
	var file yamlFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse workout yaml: %w", err)
	}
	for i := range file.Workouts {
		w := &file.Workouts[i]
		w.AssignIDs()
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("workout %q: %w", w.Name, err)
		}
	}
	return file.Workouts, nil
}

// UnmarshalYAML defaults sets to 1 only when the key is absent, so an
// explicit zero still fails validation.
func (w *Workout) UnmarshalYAML(n *yaml.Node) error {
	type plain Workout
	p := plain{Sets: 1}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*w = Workout(p)
	return nil
}
