package driven

// ConfigStore is a flat dotted-key view over the settings file, for
// example "llm.provider". Typed getters coerce loosely and return the zero
// value for a missing key.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// GetStringSlice returns nil for a missing key.
	GetStringSlice(key string) []string

	// Set updates one key and writes the file.
	Set(key string, value any) error

	Save() error

	// Load rereads the file, picking up edits made outside qpro.
	Load() error

	// Path is where the settings live, or ":memory:".
	Path() string
}
