package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/newsadvisor/internal/config"
)

// FileName is the database file name inside the data directory.
const FileName = "newsadvisor.db"

// SettingsDB provides SQLite-based storage for session settings.
type SettingsDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SettingsDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that a running watch
	// session can read while the settings command writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SettingsDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SettingsDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SettingsDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return sdb, nil
}

// Path returns the database file path.
func (sdb *SettingsDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SettingsDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SettingsDB) createTables() error {
	schema := `
	-- One row per toggle, stored in its string form
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Hosts on which the advisor stays off
	CREATE TABLE IF NOT EXISTS allow_list (
		host TEXT PRIMARY KEY,
		added DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// LoadSettings returns the stored settings over config.DefaultSettings.
// Keys that were never saved keep their default.
func (sdb *SettingsDB) LoadSettings(ctx context.Context) (config.Settings, error) {
	s := config.DefaultSettings()

	rows, err := sdb.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return s, fmt.Errorf("failed to load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, fmt.Errorf("failed to scan setting: %w", err)
		}
		if err := s.Set(key, value); err != nil {
			// Unknown keys, such as the update marker, are ignored.
			continue
		}
	}
	if err := rows.Err(); err != nil {
		return s, fmt.Errorf("failed to load settings: %w", err)
	}

	hosts, err := sdb.AllowList(ctx)
	if err != nil {
		return s, err
	}
	s.AllowList = hosts
	return s, nil
}

// SaveSettings stores every toggle and replaces the allow-list.
func (sdb *SettingsDB) SaveSettings(ctx context.Context, s config.Settings) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range config.SettingKeys {
		if key == config.KeyAllowList {
			continue
		}
		value, err := s.Get(key)
		if err != nil {
			return err
		}
		if err := upsertSetting(ctx, tx, key, value); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM allow_list`); err != nil {
		return fmt.Errorf("failed to clear allow-list: %w", err)
	}
	for _, host := range config.ParseAllowList(strings.Join(s.AllowList, ",")) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO allow_list (host) VALUES (?)`, host); err != nil {
			return fmt.Errorf("failed to save allow-list: %w", err)
		}
	}
	if err := touch(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SetSetting validates and stores one setting. The allow-list key
// replaces the whole list.
func (sdb *SettingsDB) SetSetting(ctx context.Context, key, value string) error {
	s, err := sdb.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if err := s.Set(key, value); err != nil {
		return err
	}
	return sdb.SaveSettings(ctx, s)
}

// GetSetting returns the string form of one setting.
func (sdb *SettingsDB) GetSetting(ctx context.Context, key string) (string, error) {
	s, err := sdb.LoadSettings(ctx)
	if err != nil {
		return "", err
	}
	return s.Get(key)
}

// AllowList returns the stored hosts in alphabetical order.
func (sdb *SettingsDB) AllowList(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT host FROM allow_list ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allow-list: %w", err)
	}
	defer rows.Close()

	hosts := make([]string, 0)
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	return hosts, rows.Err()
}

// Allow adds hosts to the allow-list.
func (sdb *SettingsDB) Allow(ctx context.Context, hosts ...string) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, host := range config.ParseAllowList(strings.Join(hosts, ",")) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO allow_list (host) VALUES (?)`, host); err != nil {
			return fmt.Errorf("failed to add host: %w", err)
		}
	}
	if err := touch(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Disallow removes hosts from the allow-list.
func (sdb *SettingsDB) Disallow(ctx context.Context, hosts ...string) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, host := range config.ParseAllowList(strings.Join(hosts, ",")) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM allow_list WHERE host = ?`, host); err != nil {
			return fmt.Errorf("failed to remove host: %w", err)
		}
	}
	if err := touch(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdatedAt returns when the settings last changed, or the zero time when
// they were never saved.
func (sdb *SettingsDB) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullString
	err := sdb.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, updatedKey).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read update time: %w", err)
	}
	return parseTimestamp(ts.String), nil
}

// Watch polls the database every interval and sends the settings each
// time they differ from the previous value, starting from last. The
// channel is closed when ctx is done.
func (sdb *SettingsDB) Watch(ctx context.Context, interval time.Duration, last config.Settings, logger *slog.Logger) <-chan config.Settings {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan config.Settings)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s, err := sdb.LoadSettings(ctx)
			if err != nil {
				logger.Warn("failed to poll settings", slog.String("error", err.Error()))
				continue
			}
			if s.Equal(last) {
				continue
			}
			last = s
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// updatedKey is the settings row that records the last change.
const updatedKey = "_updated"

func upsertSetting(ctx context.Context, tx *sql.Tx, key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx) error {
	return upsertSetting(ctx, tx, updatedKey, time.Now().UTC().Format(time.RFC3339Nano))
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
