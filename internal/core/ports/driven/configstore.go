package driven

// ConfigStore is the persisted key/value settings file.
// Keys are dotted section paths such as "retrieval.top_k" or "llm.provider".
// Typed getters return the zero value for missing keys or mismatched types.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values.
	GetFloat(key string) float64

	GetBool(key string) bool

	// Set stores a value and writes the file.
	Set(key string, value any) error

	// Save writes the current values.
	Save() error

	// Load replaces the in-memory values with the file contents.
	Load() error

	// Path is the file location, or empty for stores with no file.
	Path() string
}
