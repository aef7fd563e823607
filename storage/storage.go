package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Attempts made at finding a free receipt name before giving up.
const MaxNameAttempts = 1000

var ErrNameExhausted = errors.New("no free receipt name")

type Storage interface {
	// Writes a receipt under the given name. If the name is
	// taken, a numeric suffix is added (see ReceiptName). Returns
	// the name actually used.
	WriteReceipt(name string, content string, createdAt time.Time) (string, error)

	// Retrieves all receipts, oldest first.
	ListReceipts() ([]*Receipt, error)

	// Writes a SourceMetadata record. If a record with the same
	// URL and hash exists, it is updated.
	WriteSource(src *SourceMetadata) error

	// Retrieves all source records for the given URL, most
	// recently retrieved first. If the URL is blank, all records
	// are returned.
	ListSources(url string) ([]*SourceMetadata, error)
}

// A stored ticket receipt. Content is the receipt text.
type Receipt struct {
	Name      string
	Content   string
	CreatedAt time.Time
}

// Metadata for a network document loaded from a URL or file.
type SourceMetadata struct {
	URL         string
	SHA256      string
	RetrievedAt time.Time
	Cities      int
	Departures  int
}

// Name of the attempt:th candidate for a receipt name. The first
// attempt is the name itself, e.g. "racun_20250101_080000.txt",
// followed by "racun_20250101_080000_1.txt" and so on.
func ReceiptName(name string, attempt int) string {
	if attempt == 0 {
		return name
	}

	ext := ""
	if i := strings.LastIndex(name, "."); i > 0 {
		name, ext = name[:i], name[i:]
	}

	return fmt.Sprintf("%s_%d%s", name, attempt, ext)
}

// Tries candidate names in order until write reports success. write
// returns false if the name is taken.
func writeUnique(name string, write func(candidate string) (bool, error)) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid receipt name '%s'", name)
	}

	for attempt := 0; attempt < MaxNameAttempts; attempt++ {
		candidate := ReceiptName(name, attempt)
		ok, err := write(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrNameExhausted, name)
}
