package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

var (
	// ErrUnknownSection is returned for a section name the catalog does not declare.
	ErrUnknownSection = errors.New("unknown settings section")

	// ErrPasscodeTooShort is returned by SetPasscode for passcodes under 8 characters.
	ErrPasscodeTooShort = errors.New("master passcode must be at least 8 characters")
)

// PasscodeOutcome keeps the two failure cases of a passcode check apart.
// Callers showing a message to users should treat Mismatch and NotConfigured alike.
type PasscodeOutcome int

const (
	PasscodeMismatch PasscodeOutcome = iota
	PasscodeMatched
	PasscodeNotConfigured
)

func (o PasscodeOutcome) String() string {
	switch o {
	case PasscodeMatched:
		return "matched"
	case PasscodeNotConfigured:
		return "not_configured"
	default:
		return "mismatch"
	}
}

// SettingsService orchestrates the catalog, the settings store and the
// passcode hasher, and owns the access gate rules.
type SettingsService struct {
	store     driven.SettingStore
	catalog   *catalog.Catalog
	hasher    driven.PasswordHasher
	validator *FormValidator
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// ServiceOption customizes a SettingsService.
type ServiceOption func(*SettingsService)

// WithClock replaces time.Now, mainly for gate window tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *SettingsService) { s.now = now }
}

// WithGateWindow overrides model.GateWindow.
func WithGateWindow(d time.Duration) ServiceOption {
	return func(s *SettingsService) {
		if d > 0 {
			s.window = d
		}
	}
}

// NewSettingsService creates a new SettingsService with the required dependencies.
func NewSettingsService(
	store driven.SettingStore,
	cat *catalog.Catalog,
	hasher driven.PasswordHasher,
	logger *slog.Logger,
	opts ...ServiceOption,
) *SettingsService {
	s := &SettingsService{
		store:     store,
		catalog:   cat,
		hasher:    hasher,
		validator: NewFormValidator(cat),
		window:    model.GateWindow,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service was built with.
func (s *SettingsService) Catalog() *catalog.Catalog {
	return s.catalog
}

// GateWindow returns how long a verification stays valid.
func (s *SettingsService) GateWindow() time.Duration {
	return s.window
}

// GetBySection returns key -> plaintext value for every stored setting in
// section. The map is empty, never nil, when nothing is stored.
func (s *SettingsService) GetBySection(ctx context.Context, section string) (map[string]string, error) {
	settings, err := s.store.ListBySection(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("get %s settings: %w", section, err)
	}
	return model.SettingsMap(settings), nil
}

// Settings returns the stored rows of section, including type and encryption flags.
func (s *SettingsService) Settings(ctx context.Context, section string) ([]model.Setting, error) {
	settings, err := s.store.ListBySection(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("list %s settings: %w", section, err)
	}
	return settings, nil
}

// Get returns the value stored under key, or fallback when none is stored.
func (s *SettingsService) Get(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	if setting == nil {
		return fallback, nil
	}
	return setting.Value, nil
}

// Validate normalizes and validates raw input for section against the
// catalog and the currently stored values.
func (s *SettingsService) Validate(ctx context.Context, section string, input map[string]string) (*SectionForm, error) {
	if _, ok := s.catalog.Section(section); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	existing, err := s.GetBySection(ctx, section)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(section, input, existing)
}

// UpdateSettings persists values for section. Confirmation-only inputs and
// keys the catalog does not declare are dropped. The master passcode is
// hashed and never stored encrypted. A blank password-typed field keeps its
// stored value. The write is all-or-nothing.
func (s *SettingsService) UpdateSettings(ctx context.Context, section string, values map[string]string) error {
	sec, ok := s.catalog.Section(section)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	batch := make([]model.Setting, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		value, present := values[f.Key]
		if !present {
			continue
		}

		encrypted := f.Encrypted
		if f.Key == model.KeyMasterPasscode && value != "" {
			hash, err := s.hasher.Hash(value)
			if err != nil {
				return fmt.Errorf("hash master passcode: %w", err)
			}
			value = hash
			encrypted = false
		}

		if f.Type == model.FieldTypePassword && value == "" {
			continue
		}

		batch = append(batch, model.Setting{
			Section:     section,
			Key:         f.Key,
			Value:       value,
			Type:        f.Type,
			IsEncrypted: encrypted,
		})
	}

	if err := s.store.UpsertAll(ctx, batch); err != nil {
		return fmt.Errorf("update %s settings: %w", section, err)
	}

	s.logger.Info("settings updated", "section", section, "fields", len(batch))
	return nil
}

// SetPasscode hashes and stores a new master passcode.
func (s *SettingsService) SetPasscode(ctx context.Context, passcode string) error {
	if len([]rune(passcode)) < 8 {
		return ErrPasscodeTooShort
	}
	section, ok := s.catalog.SectionOf(model.KeyMasterPasscode)
	if !ok {
		return fmt.Errorf("%w: no section declares %s", ErrUnknownSection, model.KeyMasterPasscode)
	}
	return s.UpdateSettings(ctx, section, map[string]string{model.KeyMasterPasscode: passcode})
}

// CheckPasscode compares candidate with the stored master passcode hash.
func (s *SettingsService) CheckPasscode(ctx context.Context, candidate string) (PasscodeOutcome, error) {
	stored, err := s.store.Get(ctx, model.KeyMasterPasscode)
	if err != nil {
		return PasscodeMismatch, fmt.Errorf("load master passcode: %w", err)
	}

	if stored == nil || stored.Value == "" {
		s.hasher.Matches("", candidate)
		return PasscodeNotConfigured, nil
	}

	if s.hasher.Matches(stored.Value, candidate) {
		return PasscodeMatched, nil
	}
	return PasscodeMismatch, nil
}

// VerifyPasscode reports whether candidate matches the stored master
// passcode. It is false when no passcode is configured.
func (s *SettingsService) VerifyPasscode(ctx context.Context, candidate string) (bool, error) {
	outcome, err := s.CheckPasscode(ctx, candidate)
	if err != nil {
		return false, err
	}
	return outcome == PasscodeMatched, nil
}

// RequiresVerification reports whether gate is closed. A verification older
// than the gate window is cleared from gate as a side effect.
func (s *SettingsService) RequiresVerification(gate *model.AccessGate) bool {
	return !gate.Expire(s.now(), s.window)
}

// GrantAccess opens gate as of now.
func (s *SettingsService) GrantAccess(gate *model.AccessGate) {
	gate.Grant(s.now())
}

// RevokeAccess closes gate.
func (s *SettingsService) RevokeAccess(gate *model.AccessGate) {
	gate.Clear()
}

// IsSensitive reports whether section sits behind the access gate.
func (s *SettingsService) IsSensitive(section string) bool {
	return s.catalog.Sensitive(section)
}

// Locked reports whether section must not be shown or modified with gate.
func (s *SettingsService) Locked(gate *model.AccessGate, section string) bool {
	return s.IsSensitive(section) && s.RequiresVerification(gate)
}

// PasscodeConfigured reports whether a master passcode is stored.
func (s *SettingsService) PasscodeConfigured(ctx context.Context) (bool, error) {
	v, err := s.Get(ctx, model.KeyMasterPasscode, "")
	if err != nil {
		return false, err
	}
	return v != "", nil
}
