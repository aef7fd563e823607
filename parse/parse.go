package parse

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"tidbyt.dev/transit/model"
)

// Parses a network from either a JSON document or a zipped CSV
// bundle, depending on content.
func Parse(buf []byte) (*model.Document, error) {
	if bytes.HasPrefix(buf, []byte("PK")) {
		return ParseBundle(buf)
	}
	return ParseNetwork(buf)
}

// Parses a JSON network document with countryMap, stations and
// departures arrays.
func ParseNetwork(buf []byte) (*model.Document, error) {
	doc := &model.Document{}
	err := json.Unmarshal(bom.Clean(buf), doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling network: %w", err)
	}

	err = validateDocument(doc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Parses a zip archive holding stations.txt and departures.txt. Grid
// dimensions are derived from the city names at ingestion.
func ParseBundle(buf []byte) (*model.Document, error) {
	file := map[string]io.ReadCloser{
		"stations.txt":   nil,
		"departures.txt": nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}

		file[fName] = rc
	}

	for _, required := range []string{"stations.txt", "departures.txt"} {
		if file[required] == nil {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	// LazyCSVReader survives sloppy use of quotes. The BOM reader
	// strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	stations, err := ParseStations(file["stations.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stations.txt: %w", err)
	}

	departures, err := ParseDepartures(file["departures.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing departures.txt: %w", err)
	}

	doc := &model.Document{
		Stations:   stations,
		Departures: departures,
	}

	err = validateDocument(doc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Only structural problems are rejected here. Individual records
// that don't resolve are skipped at ingestion.
func validateDocument(doc *model.Document) error {
	if len(doc.Stations) == 0 {
		return fmt.Errorf("no stations in network")
	}

	for i, row := range doc.CountryMap {
		if len(row) != len(doc.CountryMap[0]) {
			return fmt.Errorf("country map row %d has %d cities, expected %d", i, len(row), len(doc.CountryMap[0]))
		}
	}

	return nil
}
