package cache

import (
	"encoding/json"
	"fmt"
)

// Key derives the cache key for (category, params).
//
// The derivation is deterministic: params are serialized to canonical JSON
// (encoding/json emits map keys in sorted order, struct fields in declaration
// order), so two calls with identical category and params always collide on
// the same entry. No random or per-call component may ever be mixed in; that
// would make every lookup a guaranteed miss.
func Key(category Category, params any) string {
	if params == nil {
		return string(category) + ":"
	}

	b, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params (channels, funcs) should not reach the cache;
		// fall back to the fmt representation rather than panicking.
		return fmt.Sprintf("%s:%v", category, params)
	}

	return string(category) + ":" + string(b)
}
