package state

import (
	"database/sql"
	"errors"
	"time"
)

// Settings are the output settings restored at startup.
type Settings struct {
	Volume float64
	Loop   bool
}

// GetSettings returns the saved settings, or the defaults.
func (m *Manager) GetSettings() (Settings, error) {
	var s Settings
	row := m.db.QueryRow(`SELECT volume, loop FROM settings WHERE id = 1`)
	err := row.Scan(&s.Volume, &s.Loop)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{Volume: 1.0}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SaveSettings persists s after a short delay; a later call replaces a
// pending one.
func (m *Manager) SaveSettings(s Settings) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &s

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveSettings(m.db, *pending)
		}
	})
}

func saveSettings(db *sql.DB, s Settings) error {
	_, err := db.Exec(`
		INSERT INTO settings (id, volume, loop)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			loop = excluded.loop
	`, s.Volume, s.Loop)
	return err
}
