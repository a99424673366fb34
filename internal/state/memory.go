package state

import (
	"context"
	"encoding/json"
	"sync"

	"ChamCong/internal/model"
)

// MemoryRepository 把状态文档放在内存里，Save 做一次 JSON 深拷贝，
// 行为和真实后端一致（写入后的文档修改不会影响已保存的副本）。
type MemoryRepository struct {
	mu    sync.Mutex
	raw   []byte
	Saves int // 测试用：Save 被调用的次数
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(ctx context.Context) (*model.StateDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.raw == nil {
		return model.NewStateDocument(), nil
	}

	doc := model.NewStateDocument()
	if err := json.Unmarshal(r.raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *MemoryRepository) Save(ctx context.Context, doc *model.StateDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = raw
	r.Saves++
	return nil
}
