package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Holds all external facing types and constants.

type Mode int

const (
	ModeBus Mode = iota
	ModeTrain
)

func (m Mode) String() string {
	switch m {
	case ModeBus:
		return "Bus"
	case ModeTrain:
		return "Train"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Optimization objective of a route search.
type Criterion string

const (
	CriterionTime      Criterion = "time"
	CriterionPrice     Criterion = "price"
	CriterionTransfers Criterion = "transfers"
)

func (c Criterion) Valid() bool {
	switch c {
	case CriterionTime, CriterionPrice, CriterionTransfers:
		return true
	}
	return false
}

// Network description as produced by the generator. Grid dimensions
// are taken from CountryMap; Stations and Departures define the
// graph.
type Document struct {
	CountryMap [][]string        `json:"countryMap"`
	Stations   []StationRecord   `json:"stations"`
	Departures []DepartureRecord `json:"departures"`
}

type StationRecord struct {
	City         string `json:"city"`
	BusStation   string `json:"busStation"`
	TrainStation string `json:"trainStation"`
}

// A scheduled service. From is a station name, To a city name, and
// DepartureTime is given as "HH:mm".
type DepartureRecord struct {
	Type            string `json:"type"`
	From            string `json:"from"`
	To              string `json:"to"`
	DepartureTime   string `json:"departureTime"`
	Duration        int    `json:"duration"`
	Price           int    `json:"price"`
	MinTransferTime int    `json:"minTransferTime"`
}

// Departure types used by the generator.
const (
	DepartureTypeBus   = "autobus"
	DepartureTypeTrain = "voz"
)

// Name of the city at a grid cell, e.g. "G_1_2".
func CityName(row int, col int) string {
	return fmt.Sprintf("G_%d_%d", row, col)
}

// Extracts row and column from a grid name like "G_1_2" or "A_1_2".
func GridPosition(name string) (int, int, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("'%s' is not on form <prefix>_<row>_<col>", name)
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil || row < 0 {
		return 0, 0, fmt.Errorf("invalid row in '%s'", name)
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil || col < 0 {
		return 0, 0, fmt.Errorf("invalid column in '%s'", name)
	}
	return row, col, nil
}

// A sold ticket, as persisted in a receipt.
type Ticket struct {
	// Travel relation, e.g. "G_0_0 -> G_1_1"
	Relation string

	// Segmented route description, possibly spanning multiple
	// lines.
	Path string

	TotalTime   int
	Price       int
	Transfers   int
	PurchasedAt time.Time
}

// Aggregate over all stored receipts.
type Statistics struct {
	Tickets int
	Revenue int

	// Receipts that could not be parsed.
	Skipped int
}
