package state

import (
	"context"

	"ChamCong/internal/model"
)

// Repository 是状态文档的持久化边界：整读整写一份 StateDocument。
// 生产环境由 redis / postgres 实现（internal/repository），测试用 MemoryRepository。
type Repository interface {
	Load(ctx context.Context) (*model.StateDocument, error)
	Save(ctx context.Context, doc *model.StateDocument) error
}
