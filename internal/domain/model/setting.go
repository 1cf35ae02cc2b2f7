package model

import "time"

// Well-known setting keys referenced outside the catalog.
const (
	KeyMasterPasscode             = "master_passcode"
	KeyMasterPasscodeConfirmation = "master_passcode_confirmation"
)

// Setting is one persisted key/value row. Value holds plaintext; the store
// adapter applies reversible encryption when IsEncrypted is set.
type Setting struct {
	ID          int64
	Section     string
	Key         string
	Value       string
	Type        FieldType
	IsEncrypted bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SettingsMap flattens settings into key -> value.
func SettingsMap(settings []Setting) map[string]string {
	m := make(map[string]string, len(settings))
	for _, s := range settings {
		m[s.Key] = s.Value
	}
	return m
}
