package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"portfolio/api/internal/markup"
	"portfolio/api/internal/portfolio"
)

//go:embed templates/*.html
var templateFS embed.FS

var resumeTemplate = template.Must(
	template.New("resume.html").
		Funcs(template.FuncMap{
			"join": strings.Join,
			"formatDate": func(t time.Time, layout string) string {
				return t.Format(layout)
			},
		}).
		ParseFS(templateFS, "templates/resume.html"),
)

// TemplateData holds data for resume template rendering
type TemplateData struct {
	Name           string
	Title          string
	Summary        template.HTML
	Bio            template.HTML
	Education      template.HTML
	Contact        portfolio.Contact
	Projects       []TemplateProject
	Skills         []TemplateSkillGroup
	Timeline       []portfolio.TimelineEntry
	Certifications []portfolio.Certification
	GeneratedAt    time.Time
}

// TemplateProject holds project data for template
type TemplateProject struct {
	Title        string
	Description  template.HTML
	Technologies []string
	Link         string
	Featured     bool
}

// TemplateSkillGroup holds one skill category for template
type TemplateSkillGroup struct {
	Title  string
	Skills []string
}

// NewTemplateData flattens a document into what the resume template prints.
func NewTemplateData(doc portfolio.Document, generatedAt time.Time) TemplateData {
	data := TemplateData{
		Name:           doc.Hero.Name,
		Title:          doc.Hero.Title,
		Summary:        markup.Markdown(doc.Hero.Description),
		Bio:            markup.Markdown(doc.About.Bio),
		Education:      markup.Markdown(doc.About.Education),
		Contact:        doc.Contact,
		Timeline:       doc.About.Timeline,
		Certifications: doc.About.Certifications,
		GeneratedAt:    generatedAt,
	}
	for _, p := range doc.FeaturedProjects() {
		link := p.GitHub
		if p.Demo != "" && p.Demo != "#" {
			link = p.Demo
		}
		data.Projects = append(data.Projects, TemplateProject{
			Title:        p.Title,
			Description:  markup.Markdown(p.Description),
			Technologies: p.Technologies,
			Link:         link,
			Featured:     p.Featured,
		})
	}
	for _, c := range doc.Skills.Categories {
		group := TemplateSkillGroup{Title: c.Title}
		for _, skill := range c.Skills {
			group.Skills = append(group.Skills, skill.Name)
		}
		data.Skills = append(data.Skills, group)
	}
	return data
}

// RenderResumeHTML renders the resume template with provided data
func RenderResumeHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
