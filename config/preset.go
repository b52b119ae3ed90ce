package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"syncloop/model"
)

// LoadPreset reads a loop preset from a YAML file and validates it.
func LoadPreset(path string) (*model.Loop, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	return ParsePreset(b)
}

// ParsePreset decodes and validates a YAML preset document.
func ParsePreset(b []byte) (*model.Loop, error) {
	var l model.Loop
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// MarshalPreset encodes l as a YAML preset document.
func MarshalPreset(l *model.Loop) ([]byte, error) {
	b, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode preset: %w", err)
	}
	return b, nil
}

// SavePreset writes l as YAML.
func SavePreset(path string, l *model.Loop) error {
	b, err := MarshalPreset(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
