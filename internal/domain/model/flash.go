package model

// Flash is a one-shot banner shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}
