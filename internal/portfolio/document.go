// Package portfolio defines the portfolio document and its boundary validation.
package portfolio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Key is the store key holding the single portfolio document.
const Key = "portfolio:data"

// ErrMalformed is returned when a payload cannot be decoded into a Document.
var ErrMalformed = errors.New("malformed portfolio document")

// Document is the whole content of the site. It is always read and written as one unit.
type Document struct {
	Hero     Hero      `json:"hero" yaml:"hero"`
	About    About     `json:"about" yaml:"about"`
	Projects []Project `json:"projects" yaml:"projects"`
	Skills   Skills    `json:"skills" yaml:"skills"`
	Contact  Contact   `json:"contact" yaml:"contact"`
}

type Hero struct {
	Name         string `json:"name" yaml:"name"`
	Title        string `json:"title" yaml:"title"`
	Subtitle     string `json:"subtitle" yaml:"subtitle"`
	Description  string `json:"description" yaml:"description"`
	ProfileImage string `json:"profileImage" yaml:"profileImage"`
}

type About struct {
	Bio            string          `json:"bio" yaml:"bio"`
	Education      string          `json:"education" yaml:"education"`
	Achievements   []Achievement   `json:"achievements" yaml:"achievements"`
	Timeline       []TimelineEntry `json:"timeline" yaml:"timeline"`
	Certifications []Certification `json:"certifications" yaml:"certifications"`
}

type Achievement struct {
	Icon        string `json:"icon" yaml:"icon"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
}

type TimelineEntry struct {
	Year        string `json:"year" yaml:"year"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type Certification struct {
	Title       string   `json:"title" yaml:"title"`
	Issuer      string   `json:"issuer" yaml:"issuer"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	Color       string   `json:"color" yaml:"color"`
}

type Project struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	GitHub       string   `json:"github" yaml:"github"`
	Demo         string   `json:"demo" yaml:"demo"`
	Featured     bool     `json:"featured" yaml:"featured"`
	Image        string   `json:"image" yaml:"image"`
}

type Skills struct {
	Categories []SkillCategory `json:"categories" yaml:"categories"`
}

type SkillCategory struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Icon   string  `json:"icon" yaml:"icon"`
	Color  string  `json:"color" yaml:"color"`
	Skills []Skill `json:"skills" yaml:"skills"`
}

type Skill struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
}

type Contact struct {
	Email    string `json:"email" yaml:"email"`
	GitHub   string `json:"github" yaml:"github"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
	Resume   string `json:"resume" yaml:"resume"`
}

// Decode strictly parses a client payload. Unknown fields, type mismatches,
// a bare null and trailing data are all rejected with ErrMalformed.
func Decode(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Document{}, fmt.Errorf("%w: body must be a JSON object", ErrMalformed)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("%w: unexpected data after document", ErrMalformed)
	}
	return doc.normalized(), nil
}

// Encode serialises the document for storage.
func Encode(doc Document) ([]byte, error) {
	return json.Marshal(doc.normalized())
}

// NeedsSkills reports whether the skills section is missing or empty.
func NeedsSkills(doc Document) bool {
	return len(doc.Skills.Categories) == 0
}

// WithDefaultSkills returns doc with only its skills section replaced by a copy
// of the defaults' skills.
func WithDefaultSkills(doc, defaults Document) Document {
	doc.Skills = cloneSkills(defaults.Skills)
	return doc
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.About.Achievements = append([]Achievement{}, d.About.Achievements...)
	out.About.Timeline = append([]TimelineEntry{}, d.About.Timeline...)
	out.About.Certifications = make([]Certification, len(d.About.Certifications))
	for i, cert := range d.About.Certifications {
		cert.Tags = append([]string{}, cert.Tags...)
		out.About.Certifications[i] = cert
	}
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Technologies = append([]string{}, p.Technologies...)
		out.Projects[i] = p
	}
	out.Skills = cloneSkills(d.Skills)
	return out
}

// FeaturedProjects returns featured projects first, keeping the stored order otherwise.
func (d Document) FeaturedProjects() []Project {
	out := make([]Project, 0, len(d.Projects))
	for _, p := range d.Projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	for _, p := range d.Projects {
		if !p.Featured {
			out = append(out, p)
		}
	}
	return out
}

func cloneSkills(s Skills) Skills {
	out := Skills{Categories: make([]SkillCategory, len(s.Categories))}
	for i, c := range s.Categories {
		c.Skills = append([]Skill{}, c.Skills...)
		out.Categories[i] = c
	}
	return out
}

// normalized replaces nil slices with empty ones so the document always
// serialises lists as [] rather than null.
func (d Document) normalized() Document {
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	for i := range d.Projects {
		if d.Projects[i].Technologies == nil {
			d.Projects[i].Technologies = []string{}
		}
	}
	if d.About.Achievements == nil {
		d.About.Achievements = []Achievement{}
	}
	if d.About.Timeline == nil {
		d.About.Timeline = []TimelineEntry{}
	}
	if d.About.Certifications == nil {
		d.About.Certifications = []Certification{}
	}
	for i := range d.About.Certifications {
		if d.About.Certifications[i].Tags == nil {
			d.About.Certifications[i].Tags = []string{}
		}
	}
	if d.Skills.Categories == nil {
		d.Skills.Categories = []SkillCategory{}
	}
	for i := range d.Skills.Categories {
		if d.Skills.Categories[i].Skills == nil {
			d.Skills.Categories[i].Skills = []Skill{}
		}
	}
	return d
}
