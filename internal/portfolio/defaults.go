package portfolio

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/portfolio.yaml
var embeddedDefault []byte

// LoadDefault reads the document used to seed an empty store. JSON files are
// parsed as JSON, anything else as YAML. An empty path loads the built-in default.
func LoadDefault(path string) (Document, error) {
	if path == "" {
		return parseDefault(embeddedDefault, false)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read defaults %s: %w", path, err)
	}
	doc, err := parseDefault(raw, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return Document{}, fmt.Errorf("defaults %s: %w", path, err)
	}
	return doc, nil
}

func parseDefault(raw []byte, isJSON bool) (Document, error) {
	var doc Document
	if isJSON {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Document{}, fmt.Errorf("parse json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Document{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	doc = doc.normalized()
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
