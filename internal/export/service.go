package export

import (
	"context"
	"time"

	"portfolio/api/internal/portfolio"
)

// Service provides resume export functionality
type Service struct {
	now func() time.Time
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{now: time.Now}
}

// Export generates a resume of doc in the requested format
func (s *Service) Export(ctx context.Context, doc portfolio.Document, format Format) (*Result, error) {
	html, err := RenderResumeHTML(NewTemplateData(doc, s.now()))
	if err != nil {
		return nil, err
	}

	title := doc.Hero.Name + " Resume"
	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(ctx, html, title)
	case FormatDOCX:
		return exportDOCX(ctx, html, title)
	default:
		return nil, ErrUnsupportedFormat
	}
}
