package model

// FieldType is the UI/semantic hint of a setting. It does not affect the
// storage format.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypePassword FieldType = "password"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeTextarea FieldType = "textarea"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypePassword, FieldTypeEmail, FieldTypeTel, FieldTypeNumber,
		FieldTypeBoolean, FieldTypeSelect, FieldTypeRadio, FieldTypeTextarea:
		return true
	}
	return false
}

// FlashKind classifies a one-shot banner message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)
