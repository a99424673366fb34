package repository

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"ChamCong/internal/model"
	"ChamCong/storage/redis"
)

// RedisRepository 把整份状态文档存为单个 JSON key。
// 文档很小（每用户两个日期列表），整存整取比散列简单且天然原子。
type RedisRepository struct {
	key string
}

func NewRedisRepository() *RedisRepository {
	return &RedisRepository{key: redis.Key("state", "document")}
}

func (r *RedisRepository) Load(ctx context.Context) (*model.StateDocument, error) {
	raw, err := redis.Client().Get(ctx, r.key).Bytes()
	if err == goredis.Nil {
		return model.NewStateDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}

	doc := model.NewStateDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode state document: %w", err)
	}
	return doc, nil
}

func (r *RedisRepository) Save(ctx context.Context, doc *model.StateDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state document: %w", err)
	}

	// 不设 TTL，状态文档常驻
	if err := redis.Client().Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state document: %w", err)
	}
	return nil
}
