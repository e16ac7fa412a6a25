package cache

type lookup[T any] struct {
	data  T
	valid bool
	// claim is non-zero when the caller claimed the entry and must fill it
	claim uint64
}

// Cache stores entries that are created once and read many times.
// A missing entry is claimed by the first reader, who is responsible for filling it.
type Cache[T any] interface {
	getOrClaim(key string) lookup[T]
	// fill stores data only if the claim is still outstanding
	fill(key string, claim uint64, data T) bool
	release(key string, claim uint64)
	invalidate(key string)
	wait()
}

// Invalidate removes the entry so the next reader recreates it.
// A fill in progress for the key is discarded instead of stored.
func Invalidate[T any](cache Cache[T], key string) {
	cache.invalidate(key)
}
