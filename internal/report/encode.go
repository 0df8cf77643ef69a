package report

import (
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// JSON writes payload as indented JSON.
func JSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// YAML writes payload as YAML.
func YAML(w io.Writer, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
