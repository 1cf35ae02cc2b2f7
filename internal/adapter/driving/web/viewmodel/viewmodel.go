// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// SettingsPageViewModel holds everything the settings console renders.
type SettingsPageViewModel struct {
	Tabs      []SectionTabViewModel
	Section   SectionViewModel
	Fields    []FieldViewModel
	Flash     *FlashViewModel
	CSRFToken string

	// Locked is true when the section is sensitive and the session has not
	// verified the master passcode; the page then shows only the gate form.
	Locked bool

	// Verified is true while the access gate is open. VerifiedUntil is a
	// human-readable expiry shown next to the "clear" button.
	Verified      bool
	VerifiedUntil string
}

// SectionTabViewModel is one entry of the section navigation.
type SectionTabViewModel struct {
	Name      string
	Title     string
	Icon      string
	Path      string
	Active    bool
	Sensitive bool
}

// SectionViewModel describes the active section.
type SectionViewModel struct {
	Name        string
	Title       string
	Description string
	Sensitive   bool
}

// FieldViewModel holds presentation-ready data for one form control.
type FieldViewModel struct {
	Key         string
	Label       string
	Control     string // text, password, email, tel, number, checkbox, select, radio, textarea
	Value       string
	Required    bool
	Placeholder string
	HelpHTML    string // sanitized HTML rendered from the markdown description
	Min         string
	Max         string
	Step        string
	MaxLength   int
	Suffix      string
	Options     []OptionViewModel
	Checked     bool
	Error       string

	// IsSet marks a password field that already has a stored value; the value
	// itself is never rendered.
	IsSet bool

	ConfirmKey   string
	ConfirmLabel string
	ConfirmError string
}

// OptionViewModel is one choice of a select or radio control.
type OptionViewModel struct {
	Value    string
	Label    string
	Selected bool
}

// FlashViewModel is a one-shot banner.
type FlashViewModel struct {
	Kind    string
	Message string
}
