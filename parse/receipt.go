package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tidbyt.dev/transit/model"
)

// Receipts are plain text key-value blocks between a "Racun" and a
// "Kraj" line. Multi-line route descriptions are stored on a single
// line with "|" separators.

const (
	ReceiptBegin = "Racun"
	ReceiptEnd   = "Kraj"

	ReceiptDateLayout = "02.01.2006 15:04"

	keyPurchasedAt = "Datum kupovine"
	keyRelation    = "Relacija"
	keyPath        = "Putanja"
	keyTotalTime   = "Vrijeme trajanja"
	keyPrice       = "Cijena"
	keyTransfers   = "Broj presjedanja"
)

var ErrMalformedReceipt = errors.New("malformed receipt")

func FormatReceipt(t *model.Ticket) string {
	var b strings.Builder
	b.WriteString(ReceiptBegin + "\n")
	b.WriteString(keyPurchasedAt + ": " + t.PurchasedAt.Format(ReceiptDateLayout) + "\n")
	b.WriteString(keyRelation + ": " + t.Relation + "\n")
	b.WriteString(keyPath + ": " + strings.ReplaceAll(t.Path, "\n", "|") + "\n")
	b.WriteString(keyTotalTime + ": " + strconv.Itoa(t.TotalTime) + "\n")
	b.WriteString(keyPrice + ": " + strconv.Itoa(t.Price) + "\n")
	b.WriteString(keyTransfers + ": " + strconv.Itoa(t.Transfers) + "\n")
	b.WriteString(ReceiptEnd + "\n")
	return b.String()
}

// Parses a receipt produced by FormatReceipt. Purchase date is
// interpreted in the local timezone.
func ParseReceipt(content string) (*model.Ticket, error) {
	lines := strings.Split(content, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) < 2 || lines[0] != ReceiptBegin || lines[len(lines)-1] != ReceiptEnd {
		return nil, errors.Wrap(ErrMalformedReceipt, "missing begin or end line")
	}

	t := &model.Ticket{}
	var hasRelation, hasPath, hasDate bool

	for i := 1; i < len(lines)-1; i++ {
		parts := strings.SplitN(lines[i], ": ", 2)
		if len(parts) != 2 {
			continue
		}

		var err error
		switch parts[0] {
		case keyPurchasedAt:
			t.PurchasedAt, err = time.ParseInLocation(ReceiptDateLayout, parts[1], time.Local)
			hasDate = true
		case keyRelation:
			t.Relation = parts[1]
			hasRelation = true
		case keyPath:
			t.Path = strings.ReplaceAll(parts[1], "|", "\n")
			hasPath = true
		case keyTotalTime:
			t.TotalTime, err = strconv.Atoi(parts[1])
		case keyPrice:
			t.Price, err = strconv.Atoi(parts[1])
		case keyTransfers:
			t.Transfers, err = strconv.Atoi(parts[1])
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedReceipt, "parsing %s (line %d): %s", parts[0], i+1, err)
		}
	}

	if !hasRelation || !hasPath || !hasDate {
		return nil, errors.Wrap(ErrMalformedReceipt, "missing relation, path or purchase date")
	}

	return t, nil
}
