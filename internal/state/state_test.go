package state

import (
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"
)

func openTest(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestGetPut(t *testing.T) {
	m := openTest(t)

	if _, ok, err := m.Get("track__a"); err != nil || ok {
		t.Fatalf("Get on empty db = ok %v, err %v", ok, err)
	}
	if err := m.Put("track__a", []byte(`{"pos":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := m.Put("track__a", []byte(`{"pos":2}`)); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	v, ok, err := m.Get("track__a")
	if err != nil || !ok || string(v) != `{"pos":2}` {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}
}

func TestSettings_Defaults(t *testing.T) {
	m := openTest(t)
	s, err := m.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Volume != 1.0 || s.Loop {
		t.Errorf("default settings = %+v", s)
	}
}

func TestSaveSettings_Debounced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := openTest(t)

		m.SaveSettings(Settings{Volume: 0.2})
		m.SaveSettings(Settings{Volume: 0.4, Loop: true})
		time.Sleep(saveDebounce / 2)
		if s, _ := m.GetSettings(); s.Volume != 1.0 {
			t.Errorf("settings saved before the debounce: %+v", s)
		}

		time.Sleep(saveDebounce)
		synctest.Wait()
		s, _ := m.GetSettings()
		if s.Volume != 0.4 || !s.Loop {
			t.Errorf("settings = %+v, want last saved", s)
		}
	})
}

func TestClose_FlushesPendingSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	m, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	m.SaveSettings(Settings{Volume: 0.3})
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if s, _ := m.GetSettings(); s.Volume != 0.3 {
		t.Errorf("settings after reopen = %+v, want volume 0.3", s)
	}
}
