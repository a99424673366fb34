package form

import (
	"context"
	"errors"
	"sync"
)

// MockSubmitter 可配置的表单提交 mock，实现 Submitter 接口
type MockSubmitter struct {
	mu    sync.Mutex
	Calls []Pages

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool

	// ProbeErr 非 nil 时 Probe 返回该错误
	ProbeErr error
}

func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		Calls: make([]Pages, 0),
	}
}

func (m *MockSubmitter) Submit(ctx context.Context, pages Pages) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, pages)

	if m.FailNext {
		m.FailNext = false
		return errors.New("mock form submit failure")
	}
	return nil
}

func (m *MockSubmitter) Probe(ctx context.Context) error {
	return m.ProbeErr
}

func (m *MockSubmitter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
