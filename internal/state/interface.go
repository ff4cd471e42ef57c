package state

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	GetSettings() (Settings, error)
	SaveSettings(s Settings)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
