package services

import (
	"context"
	"sync"
)

// SeenStore отмечает уже отправленные ссылки.
type SeenStore interface {
	// MarkSeen возвращает true, если ссылка встречена впервые.
	MarkSeen(ctx context.Context, link string) (bool, error)
	// Forget снимает отметку, чтобы ссылка ушла на следующем запуске.
	Forget(ctx context.Context, link string) error
}

const (
	memoryCap  = 500
	memoryKeep = 200
)

// MemorySeen ограниченное множество ссылок в памяти процесса. При переполнении
// сохраняются только последние добавленные.
type MemorySeen struct {
	mu    sync.Mutex
	order []string
	set   map[string]struct{}
}

// NewMemorySeen конструктор.
func NewMemorySeen() *MemorySeen {
	return &MemorySeen{set: make(map[string]struct{})}
}

// MarkSeen реализует SeenStore.
func (m *MemorySeen) MarkSeen(_ context.Context, link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.set[link]; ok {
		return false, nil
	}
	m.set[link] = struct{}{}
	m.order = append(m.order, link)

	if len(m.order) > memoryCap {
		drop := m.order[:len(m.order)-memoryKeep]
		for _, l := range drop {
			delete(m.set, l)
		}
		m.order = append([]string(nil), m.order[len(m.order)-memoryKeep:]...)
	}
	return true, nil
}

// Forget реализует SeenStore.
func (m *MemorySeen) Forget(_ context.Context, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.set[link]; !ok {
		return nil
	}
	delete(m.set, link)
	for i, l := range m.order {
		if l == link {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len число запомненных ссылок.
func (m *MemorySeen) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}
