package transit

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"tidbyt.dev/transit/downloader"
	"tidbyt.dev/transit/model"
	"tidbyt.dev/transit/parse"
	"tidbyt.dev/transit/storage"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultMaxSize  = 100 << 20 // 100 MB
	DefaultCacheTTL = 5 * time.Minute

	ReceiptPrefix     = "racun_"
	ReceiptTimeLayout = "20060102_150405"
)

var ErrNoRoute = errors.New("no route")

// Manager loads networks and sells tickets, keeping receipts and
// source records in storage.
type Manager struct {
	Timeout    time.Duration
	MaxSize    int
	CacheTTL   time.Duration
	Downloader downloader.Downloader
	Logger     *slog.Logger

	storage storage.Storage
	now     func() time.Time
}

// Creates a new Manager on top of the given storage.
//
// Networks fetched over HTTP are cached in memory for CacheTTL. Set
// CacheTTL to zero to always download.
func NewManager(s storage.Storage) *Manager {
	return &Manager{
		Timeout:    DefaultTimeout,
		MaxSize:    DefaultMaxSize,
		CacheTTL:   DefaultCacheTTL,
		Downloader: downloader.NewMemoryDownloader(),
		Logger:     slog.Default(),

		storage: s,
		now:     time.Now,
	}
}

// Loads a network from an http(s) URL or a local file, and ingests
// it into a fresh Network. Headers are only used for URLs.
//
// The source is recorded in storage along with a hash of its
// content.
func (m *Manager) LoadNetwork(
	ctx context.Context,
	source string,
	headers map[string]string,
) (*Network, IngestStats, error) {

	buf, err := m.fetch(ctx, source, headers)
	if err != nil {
		return nil, IngestStats{}, err
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(buf))

	doc, err := parse.Parse(buf)
	if err != nil {
		return nil, IngestStats{}, fmt.Errorf("parsing %s: %w", source, err)
	}

	network := NewNetwork()
	network.Logger = m.Logger.With("source", source)

	stats, err := network.Ingest(doc)
	if err != nil {
		return nil, IngestStats{}, fmt.Errorf("ingesting %s: %w", source, err)
	}

	err = m.storage.WriteSource(&storage.SourceMetadata{
		URL:         source,
		SHA256:      hash,
		RetrievedAt: m.now().UTC(),
		Cities:      stats.Cities,
		Departures:  stats.Departures,
	})
	if err != nil {
		return nil, IngestStats{}, fmt.Errorf("writing source: %w", err)
	}

	return network, stats, nil
}

func (m *Manager) fetch(ctx context.Context, source string, headers map[string]string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		buf, err := m.Downloader.Get(
			ctx,
			source,
			headers,
			downloader.GetOptions{
				Cache:    m.CacheTTL > 0,
				CacheTTL: m.CacheTTL,
				Timeout:  m.Timeout,
				MaxSize:  m.MaxSize,
			},
		)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", source, err)
		}
		return buf, nil
	}

	buf, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return buf, nil
}

// Previously loaded sources, most recent first. A blank source lists
// all of them.
func (m *Manager) Sources(source string) ([]*storage.SourceMetadata, error) {
	sources, err := m.storage.ListSources(source)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

// Sells a ticket for a route between two cities. The receipt is
// written to storage as racun_<yyyyMMdd_HHmmss>.txt, and the name
// actually used is returned together with the ticket.
func (m *Manager) IssueTicket(route *Route, start *City, end *City) (string, *model.Ticket, error) {
	if route == nil || len(route.Edges) == 0 {
		return "", nil, ErrNoRoute
	}
	if start == nil || end == nil {
		return "", nil, fmt.Errorf("%w: missing start or end city", ErrUnknownCity)
	}

	now := m.now()
	ticket := &model.Ticket{
		Relation:    fmt.Sprintf("%s -> %s", start.Name, end.Name),
		Path:        route.Description(end),
		TotalTime:   route.TotalTime,
		Price:       route.TotalPrice,
		Transfers:   route.TransferCount,
		PurchasedAt: now,
	}

	name, err := m.storage.WriteReceipt(
		ReceiptPrefix+now.Format(ReceiptTimeLayout)+storage.ReceiptExtension,
		parse.FormatReceipt(ticket),
		now,
	)
	if err != nil {
		return "", nil, fmt.Errorf("writing receipt: %w", err)
	}

	m.Logger.Info(
		"ticket issued",
		"receipt", name,
		"relation", ticket.Relation,
		"price", ticket.Price,
	)

	return name, ticket, nil
}

// Counts sold tickets and sums their prices. Receipts that can't be
// parsed are skipped.
func (m *Manager) Statistics() (model.Statistics, error) {
	stats := model.Statistics{}

	receipts, err := m.storage.ListReceipts()
	if err != nil {
		return stats, fmt.Errorf("listing receipts: %w", err)
	}

	for _, r := range receipts {
		ticket, err := parse.ParseReceipt(r.Content)
		if err != nil {
			m.Logger.Warn("skipping receipt", "receipt", r.Name, "error", err)
			stats.Skipped++
			continue
		}
		stats.Tickets++
		stats.Revenue += ticket.Price
	}

	return stats, nil
}
