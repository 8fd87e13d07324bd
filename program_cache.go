package settings

// ProgramCache stores compiled expression programs keyed by expression
// strings. Implementations decide their own eviction policy.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewProgramCache returns an unbounded map-backed ProgramCache. Like the
// stack itself it is not safe for concurrent use.
func NewProgramCache() ProgramCache {
	return mapProgramCache{}
}

type mapProgramCache map[string]any

func (c mapProgramCache) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

func (c mapProgramCache) Set(key string, value any) {
	c[key] = value
}
