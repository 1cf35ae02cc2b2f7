// Package web implements the HTML console driving adapter using templ components.
package web

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/storeadmin/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/storeadmin/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/storeadmin/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

const (
	msgUpdated         = "Settings updated successfully!"
	msgUpdateFailed    = "Failed to update settings. Please try again."
	msgVerified        = "Master passcode verified successfully!"
	msgInvalidPasscode = "Invalid master passcode. Please try again."
	msgCleared         = "Passcode verification cleared."
	msgLocked          = "Please verify the master passcode to access this section."
)

// Handler is the web console driving adapter that serves HTML via templ components.
type Handler struct {
	svc      *application.SettingsService
	sessions *SessionCodec
	secure   bool
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	svc *application.SettingsService,
	sessions *SessionCodec,
	secureCookies bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		secure:   secureCookies,
		logger:   logger,
	}
}

// Index sends visitors to the settings console.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// ShowSettings renders one section, or the passcode gate when the section is
// sensitive and the session is not verified.
func (h *Handler) ShowSettings(w http.ResponseWriter, r *http.Request) {
	section := h.sectionParam(r.URL.Query().Get("section"))
	if _, ok := h.svc.Catalog().Section(section); !ok {
		http.NotFound(w, r)
		return
	}

	sess := h.session(r)
	page, err := h.buildPage(w, r, sess, section)
	if err != nil {
		h.logger.Error("failed to load settings", "section", section, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !page.Locked {
		stored, err := h.svc.GetBySection(r.Context(), section)
		if err != nil {
			h.logger.Error("failed to load settings", "section", section, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		page.Fields = toFieldViewModels(h.svc.Catalog().Fields(section), stored, stored, nil)
	}

	h.render(w, r, sess, http.StatusOK, page)
}

// UpdateSettings validates and stores a section submission.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	section := r.PostFormValue("section")
	if _, ok := h.svc.Catalog().Section(section); !ok {
		http.NotFound(w, r)
		return
	}

	sess := h.session(r)
	if h.svc.Locked(&sess.Gate, section) {
		h.logger.Warn("settings update blocked by access gate", "section", section, "session", sess.ID)
		h.redirect(w, r, sess, settingsPath(section), model.FlashError, msgLocked)
		return
	}

	input := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		input[key] = r.PostForm.Get(key)
	}

	form, err := h.svc.Validate(r.Context(), section, input)
	if err != nil {
		h.logger.Error("failed to validate settings", "section", section, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !form.Valid() {
		h.renderInvalid(w, r, sess, form)
		return
	}

	if err := h.svc.UpdateSettings(r.Context(), section, form.Values); err != nil {
		h.logger.Error("failed to update settings", "section", section, "error", err)
		h.redirect(w, r, sess, settingsPath(section), model.FlashError, msgUpdateFailed)
		return
	}

	h.redirect(w, r, sess, settingsPath(section), model.FlashSuccess, msgUpdated)
}

// VerifyPasscode opens the access gate when the submitted passcode matches.
func (h *Handler) VerifyPasscode(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	section := h.sectionParam(r.PostFormValue("section"))
	target := settingsPath(section)
	if _, ok := h.svc.Catalog().Section(section); !ok {
		target = "/settings"
	}

	sess := h.session(r)
	outcome, err := h.svc.CheckPasscode(r.Context(), r.PostFormValue(model.KeyMasterPasscode))
	if err != nil {
		h.logger.Error("failed to verify master passcode", "error", err)
		h.redirect(w, r, sess, target, model.FlashError, msgInvalidPasscode)
		return
	}

	if outcome != application.PasscodeMatched {
		h.logger.Warn("master passcode rejected", "outcome", outcome.String(), "session", sess.ID)
		h.redirect(w, r, sess, target, model.FlashError, msgInvalidPasscode)
		return
	}

	h.svc.GrantAccess(&sess.Gate)
	h.logger.Info("master passcode verified", "session", sess.ID)
	h.redirect(w, r, sess, target, model.FlashSuccess, msgVerified)
}

// ClearPasscode closes the access gate.
func (h *Handler) ClearPasscode(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	sess := h.session(r)
	h.svc.RevokeAccess(&sess.Gate)
	h.redirect(w, r, sess, "/settings", model.FlashSuccess, msgCleared)
}

// buildPage fills the parts of the page shared by every render of section.
// It applies lazy gate expiry and consumes the pending flash.
func (h *Handler) buildPage(w http.ResponseWriter, r *http.Request, sess *Session, section string) (vm.SettingsPageViewModel, error) {
	cat := h.svc.Catalog()
	sec, ok := cat.Section(section)
	if !ok {
		return vm.SettingsPageViewModel{}, application.ErrUnknownSection
	}

	verified := !h.svc.RequiresVerification(&sess.Gate)
	return vm.SettingsPageViewModel{
		Tabs: toTabViewModels(cat.Sections(), section),
		Section: vm.SectionViewModel{
			Name:        sec.Name,
			Title:       sec.Title,
			Description: sec.Description,
			Sensitive:   sec.Sensitive,
		},
		Flash:         toFlashViewModel(sess.TakeFlash()),
		CSRFToken:     csrfToken(w, r, h.secure),
		Locked:        sec.Sensitive && !verified,
		Verified:      verified,
		VerifiedUntil: gateExpiry(sess.Gate, h.svc.GateWindow()),
	}, nil
}

// renderInvalid re-renders the section with the submitted input and field errors.
func (h *Handler) renderInvalid(w http.ResponseWriter, r *http.Request, sess *Session, form *application.SectionForm) {
	page, err := h.buildPage(w, r, sess, form.Section)
	if err == nil {
		var stored map[string]string
		stored, err = h.svc.GetBySection(r.Context(), form.Section)
		page.Fields = toFieldViewModels(h.svc.Catalog().Fields(form.Section), form.Values, stored, form.Errors)
	}
	if err != nil {
		h.logger.Error("failed to render invalid settings", "section", form.Section, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, sess, http.StatusUnprocessableEntity, page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *Session, status int, page vm.SettingsPageViewModel) {
	if err := h.sessions.Save(w, sess); err != nil {
		h.logger.Error("failed to save session", "error", err)
	}

	layout := templates.Layout(page.Section.Title+" - Settings", page.Flash, pages.Settings(page))
	h.writeComponent(w, r, status, layout)
}

func (h *Handler) writeComponent(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render settings page", "error", err)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, sess *Session, target string, kind model.FlashKind, message string) {
	sess.SetFlash(kind, message)
	if err := h.sessions.Save(w, sess); err != nil {
		h.logger.Error("failed to save session", "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		h.logger.Warn("csrf token mismatch", "path", r.URL.Path)
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) session(r *http.Request) *Session {
	if s := SessionFrom(r.Context()); s != nil {
		return s
	}
	return h.sessions.Load(r)
}

func (h *Handler) sectionParam(v string) string {
	if v != "" {
		return v
	}
	if names := h.svc.Catalog().Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}
