// Package cache provides the generic memoization cache shared by the
// texture and shader layers.
//
// Sharded splits keys across 16 independently locked LRU shards. Values are
// created at most once per key: the create callback runs with the shard lock
// held, so a key has a single writer and every later lookup observes the same
// value.
//
//	c := cache.NewSharded[texture.Key, *texture.Buffer](64, hashKey)
//	buf, hit, err := c.GetOrCreate(key, func() (*texture.Buffer, error) {
//		return texture.Decode(raw, format, w, h)
//	})
//
// Sharded is safe for concurrent use and must not be copied after creation.
package cache
