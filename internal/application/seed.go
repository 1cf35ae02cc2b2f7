package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

// SeedDefaults writes the catalog's seed values. Keys that already exist are
// left alone unless overwrite is set. Returns the number of rows written.
func (s *SettingsService) SeedDefaults(ctx context.Context, overwrite bool) (int, error) {
	var batch []model.Setting

	for _, sec := range s.catalog.Sections() {
		for _, f := range sec.Fields {
			if f.Seed == "" {
				continue
			}

			if !overwrite {
				existing, err := s.store.Get(ctx, f.Key)
				if err != nil {
					return 0, fmt.Errorf("check seeded setting %q: %w", f.Key, err)
				}
				if existing != nil {
					continue
				}
			}

			value, encrypted := f.Seed, f.Encrypted
			if f.Key == model.KeyMasterPasscode {
				hash, err := s.hasher.Hash(value)
				if err != nil {
					return 0, fmt.Errorf("hash seeded passcode: %w", err)
				}
				value, encrypted = hash, false
			}

			batch = append(batch, model.Setting{
				Section:     sec.Name,
				Key:         f.Key,
				Value:       value,
				Type:        f.Type,
				IsEncrypted: encrypted,
				Description: f.Summary,
			})
		}
	}

	if err := s.store.UpsertAll(ctx, batch); err != nil {
		return 0, fmt.Errorf("seed settings: %w", err)
	}

	s.logger.Info("settings seeded", "rows", len(batch), "overwrite", overwrite)
	return len(batch), nil
}
