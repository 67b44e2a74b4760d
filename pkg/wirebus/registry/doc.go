// Package registry provides a generic thread-safe registry for values
// indexed by key.
//
// Registry is built on sync.RWMutex for read-heavy workloads. It supports
// any comparable key type and any value type through Go generics.
//
// # Interning
//
// The main consumer in wirebus is the shared event-token namespace, which
// needs one canonical value per key no matter how many goroutines ask for
// it. GetOrCreate covers that: the factory runs at most once per key, even
// under concurrent access, and every caller receives the same stored value:
//
//	tokens := registry.New[string, *Token]()
//
//	// Both goroutines get the identical *Token for "user.created".
//	tok := tokens.GetOrCreate("user.created", func() *Token {
//	    return newToken("user.created")
//	})
//
// # Iteration
//
// Range iterates over a snapshot, so entries may be registered or deleted
// from inside the callback without affecting the current iteration:
//
//	r.Range(func(key string, v int) bool {
//	    return true // continue
//	})
package registry
