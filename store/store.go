// Package store 提供 core.Store 的实现：内存与 Redis。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	rs, err := store.NewRedisStore(ctx, "localhost:6379", 0)
package store

import "github.com/rushteam/movierec/core"

// ErrNotFound 与 core.ErrStoreNotFound 相同
var ErrNotFound = core.ErrStoreNotFound
