package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML normalises the action spelling.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type plain Step
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	p.Action = ParseAction(string(p.Action))
	*s = Step(p)
	return nil
}

type fileDoc struct {
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadFile reads scenarios from a YAML or JSON file. The document may be a
// bare list or an object with a "scenarios" key.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	default:
		return parseYAML(data)
	}
}

// Parse decodes scenarios from YAML, which also accepts JSON documents.
func Parse(data []byte) ([]Scenario, error) {
	return parseYAML(data)
}

func parseYAML(data []byte) ([]Scenario, error) {
	var list []Scenario
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	return doc.Scenarios, nil
}

func parseJSON(data []byte) ([]Scenario, error) {
	var list []Scenario
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	return doc.Scenarios, nil
}
