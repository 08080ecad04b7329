package driven

// ConfigStore is a flat key-value view of the settings file.
//
// Keys are dotted paths such as "llm.model" or "policy.max_parallel_chunks".
// Typed getters return the zero value when a key is absent or cannot be
// converted; settings validation catches the values that matter.
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	// GetFloat accepts integers as well as floats.
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores value under key and persists the store. On a failed
	// save the previous value is kept.
	Set(key string, value any) error

	// Save writes every value to the backing storage.
	Save() error

	// Load replaces the in-memory values with the stored ones.
	// A missing file is an empty configuration, not an error.
	Load() error

	// Path identifies the backing storage, for messages.
	Path() string
}
