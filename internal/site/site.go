// Package site renders the public portfolio page and the admin editor shell.
package site

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"portfolio/api/internal/markup"
	"portfolio/api/internal/portfolio"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	funcs = template.FuncMap{
		"markdown": markup.Markdown,
		"join":     strings.Join,
		"linkable": linkable,
		"clamp":    clampLevel,
	}
	publicTemplate = template.Must(template.New("public.html").Funcs(funcs).ParseFS(templateFS, "templates/public.html"))
	adminTemplate  = template.Must(template.New("admin.html").Funcs(funcs).ParseFS(templateFS, "templates/admin.html"))
)

// Sections are the editor tabs, in display order.
var Sections = []string{"hero", "about", "projects", "skills", "contact"}

// PageData is what the public template prints.
type PageData struct {
	Doc      portfolio.Document
	Projects []portfolio.Project
	Year     int
}

// NewPageData orders projects featured first and stamps the copyright year.
func NewPageData(doc portfolio.Document, now time.Time) PageData {
	return PageData{
		Doc:      doc,
		Projects: doc.FeaturedProjects(),
		Year:     now.Year(),
	}
}

// RenderPublic writes the public portfolio page.
func RenderPublic(w io.Writer, data PageData) error {
	var buf bytes.Buffer
	if err := publicTemplate.Execute(&buf, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// NewItems are the blank entries the editor appends to list sections, keyed
// by section. The editor stamps each with a millisecond id before inserting it.
var NewItems = map[string]any{
	"projects": portfolio.Project{
		Title:        "New project",
		Technologies: []string{},
		GitHub:       "#",
		Demo:         "#",
	},
	"skills": portfolio.SkillCategory{
		Title:  "New category",
		Skills: []portfolio.Skill{},
	},
}

// RenderAdmin writes the editor shell. Content is loaded client-side from the API.
func RenderAdmin(w io.Writer, siteName string) error {
	var buf bytes.Buffer
	if err := adminTemplate.Execute(&buf, map[string]any{
		"SiteName": siteName,
		"Sections": Sections,
		"NewItems": NewItems,
	}); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// linkable reports whether a project link points somewhere; "#" is the
// editor's placeholder for "no link yet".
func linkable(link string) bool {
	link = strings.TrimSpace(link)
	return link != "" && link != "#"
}

func clampLevel(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	}
	return level
}
