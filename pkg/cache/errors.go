package cache

import "errors"

// ErrCacheMiss indicates the requested key is absent or expired. Callers
// treat it as the normal signal to load from the store, not a failure.
var ErrCacheMiss = errors.New("cache miss")
