package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio/api/internal/config"
	"portfolio/api/internal/contact"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/kv"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/media"
	"portfolio/api/internal/portfolio"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

type documentStore interface {
	Configured() bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error)
	Ping(ctx context.Context) error
}

// contentReadAttempts bounds how often a read retries after losing a race
// with a concurrent write. The last attempt never writes.
const contentReadAttempts = 3

type messageStore interface {
	InsertContactMessage(context.Context, store.ContactMessage) error
	ListContactMessages(context.Context, bool, int) ([]store.ContactMessage, error)
	MarkContactMessageRead(context.Context, string) error
	Ping(context.Context) error
}

type contactNotifier interface {
	IsConfigured() bool
	SendContactNotification(to string, data email.ContactNotificationData) error
}

type projectSearch interface {
	Search(projects []portfolio.Project, q search.Query) search.Response
	Reindex(projects []portfolio.Project)
}

type resumeExporter interface {
	Export(ctx context.Context, doc portfolio.Document, format export.Format) (*export.Result, error)
}

type mediaStore interface {
	Put(ctx context.Context, r io.Reader) (media.Upload, error)
}

// Dependencies are the collaborators a Service talks to. Documents is
// required; the rest are optional and their features report a
// configuration error when left nil.
type Dependencies struct {
	Documents documentStore
	Messages  messageStore
	Mailer    contactNotifier
	Search    projectSearch
	Exporter  resumeExporter
	Media     mediaStore
}

type Service struct {
	cfg      config.Config
	defaults portfolio.Document
	docs     documentStore
	messages messageStore
	mailer   contactNotifier
	search   projectSearch
	exporter resumeExporter
	media    mediaStore
	now      func() time.Time
}

func New(cfg config.Config, defaults portfolio.Document, deps Dependencies) *Service {
	if deps.Search == nil {
		deps.Search = search.NewService(nil, nil)
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewService()
	}
	return &Service{
		cfg:      cfg,
		defaults: defaults.Clone(),
		docs:     deps.Documents,
		messages: deps.Messages,
		mailer:   deps.Mailer,
		search:   deps.Search,
		exporter: deps.Exporter,
		media:    deps.Media,
		now:      time.Now,
	}
}

func (s *Service) key() string {
	if strings.TrimSpace(s.cfg.KVKey) == "" {
		return portfolio.Key
	}
	return s.cfg.KVKey
}

// Defaults returns a copy of the configured default document.
func (s *Service) Defaults() portfolio.Document {
	return s.defaults.Clone()
}

func (s *Service) kvConfigured() bool {
	return s.docs != nil && s.docs.Configured()
}

// GetContent returns the stored document. The default document is written the
// first time the key is read, and a document without skills gets the default
// skills persisted back. Both writes are conditional on the value the read
// saw, so they never overwrite a document saved in the meantime.
func (s *Service) GetContent(ctx context.Context) (portfolio.Document, error) {
	logger := logging.FromContext(ctx)
	if !s.kvConfigured() {
		logger.Error("KV env vars missing")
		return portfolio.Document{}, errKVNotConfigured
	}

	for attempt := 1; ; attempt++ {
		persist := attempt < contentReadAttempts
		doc, settled, err := s.loadContent(ctx, persist)
		if err != nil || settled {
			return doc, err
		}
		logger.Info("portfolio changed during read, retrying", zap.Int("attempt", attempt))
	}
}

// loadContent reads the document once. settled is false when a seed or skills
// write lost to a concurrent writer and the read should be repeated.
func (s *Service) loadContent(ctx context.Context, persist bool) (portfolio.Document, bool, error) {
	logger := logging.FromContext(ctx)
	raw, err := s.docs.Get(ctx, s.key())
	switch {
	case errors.Is(err, kv.ErrNotFound), err == nil && isEmptyValue(raw):
		var seen []byte
		if err == nil {
			seen = append([]byte{}, raw...)
		}
		doc := s.defaults.Clone()
		if !persist {
			return doc, true, nil
		}
		written, err := s.writeIfUnchanged(ctx, seen, doc)
		if err != nil {
			logger.Error("Error reading portfolio data", zap.Error(err))
			return portfolio.Document{}, false, readError(err)
		}
		if written {
			logger.Info("portfolio seeded with default document", zap.String("key", s.key()))
		}
		return doc, written, nil
	case err != nil:
		logger.Error("Error reading portfolio data", zap.Error(err))
		return portfolio.Document{}, false, readError(err)
	}

	doc, err := portfolio.DecodeStored(raw)
	switch {
	case errors.Is(err, portfolio.ErrPartial):
		logger.Warn("stored portfolio has fields of the wrong type", zap.Error(err))
	case err != nil:
		logger.Error("Error reading portfolio data", zap.Error(err))
		return portfolio.Document{}, false, storeError("Failed to read data", err)
	}
	if !portfolio.NeedsSkills(doc) {
		return doc, true, nil
	}

	doc = portfolio.WithDefaultSkills(doc, s.defaults)
	if !persist {
		return doc, true, nil
	}
	written, err := s.writeIfUnchanged(ctx, raw, doc)
	if err != nil {
		logger.Error("Error reading portfolio data", zap.Error(err))
		return portfolio.Document{}, false, readError(err)
	}
	if written {
		logger.Info("default skills restored", zap.String("key", s.key()))
	}
	return doc, written, nil
}

// PutContent replaces the whole document. Unauthenticated callers are
// rejected before the store is touched. Concurrent writers race and the last
// one wins.
func (s *Service) PutContent(ctx context.Context, raw []byte, authenticated bool) error {
	logger := logging.FromContext(ctx)
	if !authenticated {
		return errUnauthorized
	}
	if !s.kvConfigured() {
		logger.Error("KV env vars missing")
		return errKVNotConfigured
	}

	doc, err := portfolio.Decode(raw)
	if err != nil {
		return invalidBody(err.Error())
	}
	if err := portfolio.Validate(doc); err != nil {
		var verr *portfolio.ValidationError
		if errors.As(err, &verr) {
			return validationFailed("Invalid portfolio document", verr.Problems)
		}
		return validationFailed(err.Error(), nil)
	}

	if err := s.write(ctx, doc); err != nil {
		logger.Error("Error updating portfolio data", zap.Error(err))
		if errors.Is(err, kv.ErrNotConfigured) {
			return errKVNotConfigured
		}
		return storeError("Failed to update data", err)
	}
	logger.Info("portfolio updated", zap.Int("projects", len(doc.Projects)))
	s.search.Reindex(doc.Projects)
	return nil
}

// Seed writes the default document. Without force an existing document is
// left alone; the return value reports whether anything was written.
func (s *Service) Seed(ctx context.Context, force bool) (bool, error) {
	if !s.kvConfigured() {
		return false, errKVNotConfigured
	}
	doc := s.defaults.Clone()
	if force {
		if err := s.write(ctx, doc); err != nil {
			return false, storeError("Failed to update data", err)
		}
		s.search.Reindex(doc.Projects)
		return true, nil
	}

	raw, err := s.docs.Get(ctx, s.key())
	var seen []byte
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return false, readError(err)
	case !isEmptyValue(raw):
		return false, nil
	default:
		seen = append([]byte{}, raw...)
	}
	written, err := s.writeIfUnchanged(ctx, seen, doc)
	if err != nil {
		return false, storeError("Failed to update data", err)
	}
	if written {
		s.search.Reindex(doc.Projects)
	}
	return written, nil
}

// PublicContent is the read path of the public site. Any store problem is
// logged and the default document is rendered instead.
func (s *Service) PublicContent(ctx context.Context) portfolio.Document {
	doc, err := s.GetContent(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("rendering default portfolio", zap.Error(err))
		return s.defaults.Clone()
	}
	return doc
}

func (s *Service) write(ctx context.Context, doc portfolio.Document) error {
	raw, err := portfolio.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}
	return s.docs.Set(ctx, s.key(), raw)
}

// writeIfUnchanged stores doc only while the key still holds seen. A nil seen
// means the key must still be missing.
func (s *Service) writeIfUnchanged(ctx context.Context, seen []byte, doc portfolio.Document) (bool, error) {
	raw, err := portfolio.Encode(doc)
	if err != nil {
		return false, fmt.Errorf("encode portfolio: %w", err)
	}
	if seen == nil {
		return s.docs.SetIfAbsent(ctx, s.key(), raw)
	}
	return s.docs.CompareAndSwap(ctx, s.key(), seen, raw)
}

func readError(err error) error {
	if errors.Is(err, kv.ErrNotConfigured) {
		return errKVNotConfigured
	}
	return storeError("Failed to read data", err)
}

func isEmptyValue(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// SubmitContact validates a contact form submission, stores it when message
// storage is configured and notifies the owner when mail is configured.
func (s *Service) SubmitContact(ctx context.Context, in contact.Submission) (store.ContactMessage, error) {
	logger := logging.FromContext(ctx)
	cleaned, err := contact.Normalize(in)
	if err != nil {
		return store.ContactMessage{}, validationFailed(err.Error(), nil)
	}

	mailReady := s.mailer != nil && s.mailer.IsConfigured() && strings.TrimSpace(s.cfg.ContactToEmail) != ""
	if s.messages == nil && !mailReady {
		logger.Error("contact form has no message store or mail transport")
		return store.ContactMessage{}, errContactNotConfigured
	}

	msg := store.ContactMessage{
		ID:        util.NewID("msg"),
		Name:      cleaned.Name,
		Email:     cleaned.Email,
		Message:   cleaned.Message,
		CreatedAt: s.now().UTC(),
	}

	if s.messages != nil {
		if err := s.messages.InsertContactMessage(ctx, msg); err != nil {
			logger.Error("store contact message", zap.Error(err))
			return store.ContactMessage{}, storeError("Failed to send message", err)
		}
	}

	if mailReady {
		err := s.mailer.SendContactNotification(s.cfg.ContactToEmail, email.ContactNotificationData{
			SiteName:   s.siteName(ctx),
			Name:       msg.Name,
			Email:      msg.Email,
			Message:    msg.Message,
			ReceivedAt: msg.CreatedAt,
		})
		if err != nil {
			logger.Error("send contact notification", zap.String("message_id", msg.ID), zap.Error(err))
			// The message is already stored, so the visitor still gets a success.
			if s.messages == nil {
				return store.ContactMessage{}, storeError("Failed to send message", err)
			}
		}
	}

	logger.Info("contact message received", zap.String("message_id", msg.ID))
	return msg, nil
}

func (s *Service) siteName(ctx context.Context) string {
	if !s.kvConfigured() {
		return s.defaults.Hero.Name
	}
	raw, err := s.docs.Get(ctx, s.key())
	if err != nil {
		return s.defaults.Hero.Name
	}
	doc, err := portfolio.DecodeStored(raw)
	if (err != nil && !errors.Is(err, portfolio.ErrPartial)) || strings.TrimSpace(doc.Hero.Name) == "" {
		return s.defaults.Hero.Name
	}
	return doc.Hero.Name
}

func (s *Service) ListContactMessages(ctx context.Context, unreadOnly bool, limit int) ([]store.ContactMessage, error) {
	if s.messages == nil {
		return nil, errMessagesUnavailable
	}
	messages, err := s.messages.ListContactMessages(ctx, unreadOnly, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list contact messages", zap.Error(err))
		return nil, storeError("Failed to read messages", err)
	}
	if messages == nil {
		messages = []store.ContactMessage{}
	}
	return messages, nil
}

func (s *Service) MarkContactMessageRead(ctx context.Context, id string) error {
	if s.messages == nil {
		return errMessagesUnavailable
	}
	if !util.ValidID(id, "msg") {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Message not found", nil)
	}
	if err := s.messages.MarkContactMessageRead(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Message not found", nil)
		}
		logging.FromContext(ctx).Error("mark contact message read", zap.String("message_id", id), zap.Error(err))
		return storeError("Failed to update message", err)
	}
	return nil
}

// SearchProjects matches q against the projects of the current document.
func (s *Service) SearchProjects(ctx context.Context, q search.Query) search.Response {
	doc := s.PublicContent(ctx)
	return s.search.Search(doc.Projects, q)
}

// ExportResume renders the current document as a resume in the given format.
func (s *Service) ExportResume(ctx context.Context, format export.Format) (*export.Result, error) {
	doc, err := s.GetContent(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, doc, format)
	if err != nil {
		switch {
		case errors.Is(err, export.ErrUnsupportedFormat):
			return nil, invalidBody("format must be one of html, pdf, docx")
		case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependency is not installed", err.Error())
		}
		logging.FromContext(ctx).Error("export resume", zap.String("format", string(format)), zap.Error(err))
		return nil, storeError("Failed to export resume", err)
	}
	return result, nil
}

// UploadMedia stores an admin upload and returns where it can be fetched.
func (s *Service) UploadMedia(ctx context.Context, r io.Reader) (media.Upload, error) {
	if s.media == nil {
		return media.Upload{}, errMediaNotConfigured
	}
	upload, err := s.media.Put(ctx, r)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrNotConfigured):
			return media.Upload{}, errMediaNotConfigured
		case errors.Is(err, media.ErrEmptyUpload), errors.Is(err, media.ErrContentTypeDenied):
			return media.Upload{}, validationFailed(err.Error(), nil)
		case errors.Is(err, media.ErrTooLarge):
			return media.Upload{}, domainError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error(), nil)
		}
		logging.FromContext(ctx).Error("upload media", zap.Error(err))
		return media.Upload{}, storeError("Failed to store upload", err)
	}
	logging.FromContext(ctx).Info("media uploaded", zap.String("key", upload.Key), zap.Int64("size", upload.Size))
	return upload, nil
}

// CheckResult is the outcome of one readiness probe.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness pings the document store and, when configured, the message store.
func (s *Service) Readiness(ctx context.Context) (map[string]CheckResult, bool) {
	checks := make(map[string]CheckResult)
	ready := true

	switch {
	case !s.kvConfigured():
		checks["kv"] = CheckResult{Status: "error", Error: errKVNotConfigured.Message}
		ready = false
	default:
		if err := s.docs.Ping(ctx); err != nil {
			checks["kv"] = CheckResult{Status: "error", Error: err.Error()}
			ready = false
		} else {
			checks["kv"] = CheckResult{Status: "ok"}
		}
	}

	if s.messages != nil {
		if err := s.messages.Ping(ctx); err != nil {
			checks["database"] = CheckResult{Status: "error", Error: err.Error()}
			ready = false
		} else {
			checks["database"] = CheckResult{Status: "ok"}
		}
	}
	return checks, ready
}
