package storage

import (
	"sort"
	"sync"
	"time"
)

// In memory implementation of Storage below

type memorySourceKey struct {
	URL    string
	SHA256 string
}

type MemoryStorage struct {
	Receipts map[string]*Receipt
	Sources  map[memorySourceKey]*SourceMetadata

	mutex sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Receipts: map[string]*Receipt{},
		Sources:  map[memorySourceKey]*SourceMetadata{},
	}
}

func (s *MemoryStorage) WriteReceipt(name string, content string, createdAt time.Time) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return writeUnique(name, func(candidate string) (bool, error) {
		if _, found := s.Receipts[candidate]; found {
			return false, nil
		}
		s.Receipts[candidate] = &Receipt{
			Name:      candidate,
			Content:   content,
			CreatedAt: createdAt,
		}
		return true, nil
	})
}

func (s *MemoryStorage) ListReceipts() ([]*Receipt, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	receipts := []*Receipt{}
	for _, r := range s.Receipts {
		cp := *r
		receipts = append(receipts, &cp)
	}
	sortReceipts(receipts)

	return receipts, nil
}

func (s *MemoryStorage) WriteSource(src *SourceMetadata) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *src
	s.Sources[memorySourceKey{URL: src.URL, SHA256: src.SHA256}] = &cp
	return nil
}

func (s *MemoryStorage) ListSources(url string) ([]*SourceMetadata, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sources := []*SourceMetadata{}
	for _, src := range s.Sources {
		if url != "" && src.URL != url {
			continue
		}
		cp := *src
		sources = append(sources, &cp)
	}
	sortSources(sources)

	return sources, nil
}

func sortReceipts(receipts []*Receipt) {
	sort.Slice(receipts, func(i, j int) bool {
		if !receipts[i].CreatedAt.Equal(receipts[j].CreatedAt) {
			return receipts[i].CreatedAt.Before(receipts[j].CreatedAt)
		}
		return receipts[i].Name < receipts[j].Name
	})
}

func sortSources(sources []*SourceMetadata) {
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].RetrievedAt.After(sources[j].RetrievedAt)
	})
}
