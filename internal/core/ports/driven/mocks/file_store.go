package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var (
	_ driven.FileStore          = (*MockFileStore)(nil)
	_ driven.ParsedContentStore = (*MockParsedContentStore)(nil)
	_ driven.ContentCache       = (*MockContentCache)(nil)
)

// MockFileStore is an in-memory FileStore for testing
type MockFileStore struct {
	mu    sync.RWMutex
	files map[string]*domain.File
}

// NewMockFileStore creates a new MockFileStore
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{files: make(map[string]*domain.File)}
}

func (m *MockFileStore) Save(ctx context.Context, file *domain.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *MockFileStore) Get(ctx context.Context, id string) (*domain.File, error) {
	f, err := m.GetWithData(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Data = nil
	return f, nil
}

func (m *MockFileStore) GetWithData(ctx context.Context, id string) (*domain.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MockFileStore) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.File
	for _, f := range m.files {
		if ownerID == "" || f.OwnerID == ownerID {
			cp := *f
			cp.Data = nil
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UploadedAt.After(result[j].UploadedAt) })
	if offset >= len(result) {
		return []*domain.File{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockFileStore) Count(ctx context.Context, ownerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, f := range m.files {
		if ownerID == "" || f.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *MockFileStore) UpdateParseStatus(ctx context.Context, id string, format domain.Format, status domain.ParseStatus, parseErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Format = format
	f.ParseStatus = status
	f.ParseError = parseErr
	f.UpdatedAt = time.Now()
	return nil
}

func (m *MockFileStore) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	f.LastAccessedAt = &now
	return nil
}

func (m *MockFileStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.files, id)
	return nil
}

// MockParsedContentStore is an in-memory ParsedContentStore for testing
type MockParsedContentStore struct {
	mu       sync.RWMutex
	contents map[string]*domain.ParsedContent
}

// NewMockParsedContentStore creates a new MockParsedContentStore
func NewMockParsedContentStore() *MockParsedContentStore {
	return &MockParsedContentStore{contents: make(map[string]*domain.ParsedContent)}
}

func (m *MockParsedContentStore) Save(ctx context.Context, content *domain.ParsedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[content.FileID] = content
	return nil
}

func (m *MockParsedContentStore) GetByFile(ctx context.Context, fileID string) (*domain.ParsedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contents[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *MockParsedContentStore) DeleteByFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contents, fileID)
	return nil
}

// MockContentCache is an in-memory ContentCache that counts hits
type MockContentCache struct {
	mu      sync.Mutex
	entries map[string]*domain.ParsedContent
	Hits    int
	Misses  int
}

// NewMockContentCache creates a new MockContentCache
func NewMockContentCache() *MockContentCache {
	return &MockContentCache{entries: make(map[string]*domain.ParsedContent)}
}

func (m *MockContentCache) Get(ctx context.Context, fileID string) (*domain.ParsedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[fileID]
	if !ok {
		m.Misses++
		return nil, domain.ErrNotFound
	}
	m.Hits++
	return c, nil
}

func (m *MockContentCache) Set(ctx context.Context, content *domain.ParsedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[content.FileID] = content
	return nil
}

func (m *MockContentCache) Delete(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, fileID)
	return nil
}

func (m *MockContentCache) Ping(ctx context.Context) error {
	return nil
}

// Has reports whether fileID is cached
func (m *MockContentCache) Has(fileID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[fileID]
	return ok
}
