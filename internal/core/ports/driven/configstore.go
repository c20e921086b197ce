package driven

// ConfigStore is flat configuration addressed by dotted keys such as
// "retrieval.top_k". Typed getters return the zero value when a key is
// missing or holds something that does not convert.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value under key. Persistent stores write it through
	// before returning.
	Set(key string, value any) error
}
