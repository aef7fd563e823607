// Package generator produces synthetic grid networks.
//
// Every city gets a bus station A_r_c and a train station Z_r_c. Each
// station gets DeparturesPerStation daily departures to randomly
// chosen orthogonal neighbours, leaving on the quarter hour.
package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"

	"tidbyt.dev/transit/model"
)

const (
	DefaultDeparturesPerStation = 20

	MinDuration        = 30
	MaxDuration        = 180
	MinPrice           = 100
	MaxPrice           = 1000
	MinMinTransferTime = 5
	MaxMinTransferTime = 30
)

type Generator struct {
	Rows                 int
	Cols                 int
	DeparturesPerStation int

	rand *rand.Rand
}

// Creates a generator for a rows x cols grid. The same seed always
// yields the same network.
func New(rows int, cols int, seed int64) (*Generator, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", rows, cols)
	}

	return &Generator{
		Rows:                 rows,
		Cols:                 cols,
		DeparturesPerStation: DefaultDeparturesPerStation,
		rand:                 rand.New(rand.NewSource(seed)),
	}, nil
}

func (g *Generator) Generate() *model.Document {
	doc := &model.Document{
		CountryMap: make([][]string, g.Rows),
		Stations:   []model.StationRecord{},
		Departures: []model.DepartureRecord{},
	}

	for r := 0; r < g.Rows; r++ {
		doc.CountryMap[r] = make([]string, g.Cols)
		for c := 0; c < g.Cols; c++ {
			doc.CountryMap[r][c] = model.CityName(r, c)
			doc.Stations = append(doc.Stations, model.StationRecord{
				City:         model.CityName(r, c),
				BusStation:   fmt.Sprintf("A_%d_%d", r, c),
				TrainStation: fmt.Sprintf("Z_%d_%d", r, c),
			})
		}
	}

	for _, st := range doc.Stations {
		row, col, _ := model.GridPosition(st.City)
		neighbours := g.neighbours(row, col)

		// A 1x1 grid has nowhere to go.
		if len(neighbours) == 0 {
			continue
		}

		for i := 0; i < g.DeparturesPerStation; i++ {
			doc.Departures = append(doc.Departures, g.departure(model.DepartureTypeBus, st.BusStation, neighbours))
			doc.Departures = append(doc.Departures, g.departure(model.DepartureTypeTrain, st.TrainStation, neighbours))
		}
	}

	return doc
}

func (g *Generator) departure(kind string, from string, neighbours []string) model.DepartureRecord {
	return model.DepartureRecord{
		Type:            kind,
		From:            from,
		To:              neighbours[g.rand.Intn(len(neighbours))],
		DepartureTime:   fmt.Sprintf("%02d:%02d", g.rand.Intn(24), g.rand.Intn(4)*15),
		Duration:        g.between(MinDuration, MaxDuration),
		Price:           g.between(MinPrice, MaxPrice),
		MinTransferTime: g.between(MinMinTransferTime, MaxMinTransferTime),
	}
}

// Uniform in [lo, hi].
func (g *Generator) between(lo int, hi int) int {
	return lo + g.rand.Intn(hi-lo+1)
}

// Cities above, below, left and right of a cell, in that order.
func (g *Generator) neighbours(row int, col int) []string {
	neighbours := []string{}
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		r, c := row+d[0], col+d[1]
		if r >= 0 && r < g.Rows && c >= 0 && c < g.Cols {
			neighbours = append(neighbours, model.CityName(r, c))
		}
	}
	return neighbours
}

// Writes the document as indented JSON.
func Write(w io.Writer, doc *model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(doc)
	if err != nil {
		return fmt.Errorf("encoding network: %w", err)
	}
	return nil
}

func Save(doc *model.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	err = Write(f, doc)
	if err != nil {
		f.Close()
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
