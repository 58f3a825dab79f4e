package portfolio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrPartial is returned with a usable document when some stored fields had
// the wrong JSON type and were left at their zero value.
var ErrPartial = errors.New("stored document partially decoded")

// DecodeStored parses a value read back from the store. Unknown fields written
// by older editors are ignored. Numeric ids and years are read as strings and
// fractional skill levels are rounded. Any other type mismatch below the top
// level drops that field and returns the rest of the document with ErrPartial.
func DecodeStored(raw []byte) (Document, error) {
	var doc Document
	err := json.Unmarshal(coerceLegacyTypes(raw), &doc)
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
		return doc.normalized(), nil
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return doc.normalized(), fmt.Errorf("%w: %v", ErrPartial, err)
	default:
		return Document{}, fmt.Errorf("decode stored document: %w", err)
	}
}

// coerceLegacyTypes rewrites the fields older editors stored with a different
// JSON type. raw is returned unchanged when nothing needs rewriting.
func coerceLegacyTypes(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil || root == nil {
		return raw
	}

	changed := false
	for _, project := range objects(root["projects"]) {
		changed = numberToString(project, "id") || changed
	}
	if about, ok := root["about"].(map[string]any); ok {
		for _, entry := range objects(about["timeline"]) {
			changed = numberToString(entry, "year") || changed
		}
	}
	if skills, ok := root["skills"].(map[string]any); ok {
		for _, category := range objects(skills["categories"]) {
			changed = numberToString(category, "id") || changed
			for _, skill := range objects(category["skills"]) {
				changed = roundLevel(skill) || changed
			}
		}
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(root)
	if err != nil {
		return raw
	}
	return out
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func numberToString(obj map[string]any, field string) bool {
	n, ok := obj[field].(json.Number)
	if !ok {
		return false
	}
	obj[field] = n.String()
	return true
}

func roundLevel(skill map[string]any) bool {
	var level float64
	switch v := skill["level"].(type) {
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return false
		}
		f, err := v.Float64()
		if err != nil {
			return false
		}
		level = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return false
		}
		level = f
	default:
		return false
	}
	skill["level"] = int(math.Round(level))
	return true
}
