// Package database provides SQLite-based storage for newsadvisor settings.
//
// The SettingsDB stores the user's toggles and allow-list so that every
// session, including sessions started by other processes, sees the same
// configuration. Classification results are never stored.
//
// SQLite is used through modernc.org/sqlite: the database is a single file
// in the XDG data directory and the driver needs no CGO.
package database
