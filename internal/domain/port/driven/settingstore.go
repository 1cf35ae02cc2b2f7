package driven

import (
	"context"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

// SettingStore defines the driven port for settings persistence. Values cross
// this boundary as plaintext; encryption of rows flagged IsEncrypted is the
// adapter's concern.
type SettingStore interface {
	// ListBySection returns every setting in section ordered by key.
	// Returns an empty slice when the section has no rows.
	ListBySection(ctx context.Context, section string) ([]model.Setting, error)

	// Get returns the setting for key, or (nil, nil) if none exists.
	Get(ctx context.Context, key string) (*model.Setting, error)

	// UpsertAll inserts or replaces each setting by key. Either every row is
	// written or none is.
	UpsertAll(ctx context.Context, settings []model.Setting) error

	// Count returns the number of persisted settings.
	Count(ctx context.Context) (int, error)
}
