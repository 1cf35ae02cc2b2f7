package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingStore = (*SettingRepo)(nil)

const settingColumns = `id, section, key, value, type, is_encrypted, description, created_at, updated_at`

// SettingRepo is the SQLite implementation of the SettingStore port interface.
// Values of rows flagged is_encrypted are sealed with the cipher before write
// and opened after read.
type SettingRepo struct {
	db     *DB
	cipher driven.Cipher
	logger *slog.Logger
}

// NewSettingRepo creates a new SettingRepo backed by the given DB and cipher.
func NewSettingRepo(db *DB, cipher driven.Cipher, logger *slog.Logger) *SettingRepo {
	return &SettingRepo{db: db, cipher: cipher, logger: logger}
}

// ListBySection returns all settings in section ordered by key.
func (r *SettingRepo) ListBySection(ctx context.Context, section string) ([]model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE section = ? ORDER BY key`

	rows, err := r.db.Reader.QueryContext(ctx, query, section)
	if err != nil {
		return nil, fmt.Errorf("list settings for section %q: %w", section, err)
	}
	defer rows.Close()

	settings := []model.Setting{}
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings for section %q: %w", section, err)
	}

	return settings, nil
}

// Get returns the setting stored under key. Returns (nil, nil) when absent.
func (r *SettingRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE key = ?`

	s, err := r.scan(r.db.Reader.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}

	return &s, nil
}

// UpsertAll writes every setting in a single transaction. On conflict the
// section, value, type and encryption flag are replaced; an empty description
// keeps the stored one.
func (r *SettingRepo) UpsertAll(ctx context.Context, settings []model.Setting) error {
	if len(settings) == 0 {
		return nil
	}

	const query = `
		INSERT INTO settings (section, key, value, type, is_encrypted, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			section = excluded.section,
			value = excluded.value,
			type = excluded.type,
			is_encrypted = excluded.is_encrypted,
			description = CASE WHEN excluded.description <> '' THEN excluded.description ELSE settings.description END,
			updated_at = excluded.updated_at
	`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare settings upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range settings {
		value, err := r.seal(s)
		if err != nil {
			return fmt.Errorf("encrypt setting %q: %w", s.Key, err)
		}

		if _, err := stmt.ExecContext(ctx,
			s.Section, s.Key, value, string(s.Type), boolToInt(s.IsEncrypted), s.Description,
		); err != nil {
			return fmt.Errorf("upsert setting %q: %w", s.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}

// Count returns the number of persisted settings.
func (r *SettingRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count settings: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SettingRepo) scan(row rowScanner) (model.Setting, error) {
	var (
		s         model.Setting
		value     sql.NullString
		typ       string
		encrypted int
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&s.ID, &s.Section, &s.Key, &value, &typ, &encrypted, &s.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan setting: %w", err)
	}

	s.Type = model.FieldType(typ)
	s.IsEncrypted = encrypted != 0
	s.Value = r.open(s.Key, value.String, s.IsEncrypted)

	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return s, fmt.Errorf("parse created_at for setting %q: %w", s.Key, err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return s, fmt.Errorf("parse updated_at for setting %q: %w", s.Key, err)
	}

	return s, nil
}

func (r *SettingRepo) seal(s model.Setting) (string, error) {
	if !s.IsEncrypted || s.Value == "" {
		return s.Value, nil
	}
	return r.cipher.Encrypt(s.Value)
}

// open decrypts a stored value. A value that cannot be decrypted is returned
// as stored so one corrupt row does not take the page down.
func (r *SettingRepo) open(key, stored string, encrypted bool) string {
	if !encrypted || stored == "" {
		return stored
	}

	plaintext, err := r.cipher.Decrypt(stored)
	if err != nil {
		r.logger.Warn("returning undecryptable setting as stored", "key", key, "error", err)
		return stored
	}
	return plaintext
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
