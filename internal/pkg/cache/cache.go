package cache

import (
	"context"
	"fmt"
	"time"
)

// 缓存通用接口
type Cache interface {
	// Set在缓存中设置一个值，并指定过期时间。
	// value应该是一个可以被JSON封送的结构体或指向结构体的指针。
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get从缓存中检索一个值，并将其解编组到目标接口。
	// key 不存在时返回 xerr.ErrCacheMiss
	Get(ctx context.Context, key string, target any) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// 检查key是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// 集合操作, 用于记录需要一起失效的列表缓存 key
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// NotFoundMarker 负缓存占位值, 防止不存在的 ID 反复穿透到数据库
const NotFoundMarker = "__NOT_FOUND__"

func DatasetKey(id string) string {
	return fmt.Sprintf("dataset:detail:%s", id)
}

func DatasetListKey(query string, limit, offset int) string {
	return fmt.Sprintf("dataset:list:q=%s:l=%d:o=%d", query, limit, offset)
}

// DatasetListIndexKey 记录所有列表缓存 key 的集合
func DatasetListIndexKey() string {
	return "dataset:list:keys"
}
