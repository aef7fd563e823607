package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	ReceiptExtension = ".txt"
	SourcesFile      = "sources.json"
)

// Keeps one text file per receipt in a directory. Source metadata is
// kept in a JSON file alongside.
type FilesystemStorage struct {
	Directory string

	mutex sync.Mutex
}

type fsSource struct {
	URL         string `json:"url"`
	SHA256      string `json:"sha256"`
	RetrievedAt string `json:"retrieved_at"`
	Cities      int    `json:"cities"`
	Departures  int    `json:"departures"`
}

func NewFilesystemStorage(directory string) (*FilesystemStorage, error) {
	err := os.MkdirAll(directory, 0755)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", directory, err)
	}

	return &FilesystemStorage{Directory: directory}, nil
}

func (f *FilesystemStorage) WriteReceipt(name string, content string, createdAt time.Time) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return writeUnique(name, func(candidate string) (bool, error) {
		path := filepath.Join(f.Directory, candidate)

		fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("creating %s: %w", candidate, err)
		}

		_, err = fh.WriteString(content)
		if err != nil {
			fh.Close()
			return false, fmt.Errorf("writing %s: %w", candidate, err)
		}
		err = fh.Close()
		if err != nil {
			return false, fmt.Errorf("closing %s: %w", candidate, err)
		}

		// Modification time doubles as creation time
		err = os.Chtimes(path, createdAt, createdAt)
		if err != nil {
			return false, fmt.Errorf("setting time on %s: %w", candidate, err)
		}

		return true, nil
	})
}

func (f *FilesystemStorage) ListReceipts() ([]*Receipt, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	entries, err := os.ReadDir(f.Directory)
	if os.IsNotExist(err) {
		return []*Receipt{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Directory, err)
	}

	receipts := []*Receipt{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), ReceiptExtension) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}

		buf, err := os.ReadFile(filepath.Join(f.Directory, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		receipts = append(receipts, &Receipt{
			Name:      entry.Name(),
			Content:   string(buf),
			CreatedAt: info.ModTime(),
		})
	}
	sortReceipts(receipts)

	return receipts, nil
}

func (f *FilesystemStorage) WriteSource(src *SourceMetadata) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	records, err := f.loadSources()
	if err != nil {
		return err
	}

	record := fsSource{
		URL:         src.URL,
		SHA256:      src.SHA256,
		RetrievedAt: src.RetrievedAt.UTC().Format(time.RFC3339),
		Cities:      src.Cities,
		Departures:  src.Departures,
	}

	replaced := false
	for i, r := range records {
		if r.URL == src.URL && r.SHA256 == src.SHA256 {
			records[i] = record
			replaced = true
		}
	}
	if !replaced {
		records = append(records, record)
	}

	return f.saveSources(records)
}

func (f *FilesystemStorage) ListSources(url string) ([]*SourceMetadata, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	records, err := f.loadSources()
	if err != nil {
		return nil, err
	}

	sources := []*SourceMetadata{}
	for _, r := range records {
		if url != "" && r.URL != url {
			continue
		}
		retrievedAt, err := time.Parse(time.RFC3339, r.RetrievedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing retrieval time of %s: %w", r.URL, err)
		}
		sources = append(sources, &SourceMetadata{
			URL:         r.URL,
			SHA256:      r.SHA256,
			RetrievedAt: retrievedAt,
			Cities:      r.Cities,
			Departures:  r.Departures,
		})
	}

	sortSources(sources)

	return sources, nil
}

func (f *FilesystemStorage) loadSources() ([]fsSource, error) {
	path := filepath.Join(f.Directory, SourcesFile)

	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []fsSource{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	records := []fsSource{}
	err = json.Unmarshal(buf, &records)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}

	return records, nil
}

func (f *FilesystemStorage) saveSources(records []fsSource) error {
	buf, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	err = os.WriteFile(filepath.Join(f.Directory, SourcesFile), buf, 0644)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	return nil
}
