package transit

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/slog"

	"tidbyt.dev/transit/clock"
	"tidbyt.dev/transit/graph"
	"tidbyt.dev/transit/model"
)

var ErrAlreadyIngested = errors.New("network already ingested")

type CityID int32

// A grid cell hosting exactly one bus and one train station.
type City struct {
	ID    CityID
	Name  string
	Row   int
	Col   int
	Bus   graph.StationID
	Train graph.StationID
}

// The city's station serving the given mode.
func (c *City) Station(mode model.Mode) graph.StationID {
	if mode == model.ModeTrain {
		return c.Train
	}
	return c.Bus
}

// Manhattan distance between two grid cells.
func (c *City) Distance(other *City) int {
	return abs(c.Row-other.Row) + abs(c.Col-other.Col)
}

type Station struct {
	ID         graph.StationID
	Name       string
	Mode       model.Mode
	City       CityID
	Departures []Departure
}

// A service leaving a station every day at DepartureTime. The
// destination is a city; the arrival station is the destination's
// station of the same mode.
type Departure struct {
	From            graph.StationID
	To              CityID
	DepartureTime   int
	Duration        int
	Price           int
	MinTransferTime int
}

func (d Departure) ArrivalTime() int {
	return d.DepartureTime + d.Duration
}

func (d Departure) edge(to graph.StationID) graph.Edge {
	return graph.Edge{
		From:            d.From,
		To:              to,
		DepartureTime:   d.DepartureTime,
		Duration:        d.Duration,
		Price:           d.Price,
		MinTransferTime: d.MinTransferTime,
	}
}

type IngestStats struct {
	Cities            int
	Stations          int
	Departures        int
	SkippedStations   int
	SkippedDepartures int
}

// Network holds cities, stations and the graph connecting them.
//
// A Network is populated once by Ingest and is read-only afterwards,
// so concurrent searches on the same Network are safe.
type Network struct {
	Logger *slog.Logger

	rows          int
	cols          int
	cities        []*City
	stations      []*Station
	cityByName    map[string]CityID
	stationByName map[string]graph.StationID
	graph         *graph.Graph
	ingested      bool
}

func NewNetwork() *Network {
	return &Network{
		Logger:        slog.Default(),
		cityByName:    map[string]CityID{},
		stationByName: map[string]graph.StationID{},
		graph:         graph.New(),
	}
}

// Builds the network from a document.
//
// Station records with malformed or duplicate names, and departures
// referencing unknown stations or cities or carrying invalid values,
// are skipped. Only a missing document or a second call fails.
func (n *Network) Ingest(doc *model.Document) (IngestStats, error) {
	stats := IngestStats{}

	if doc == nil {
		return stats, fmt.Errorf("nil document")
	}
	if n.ingested {
		return stats, ErrAlreadyIngested
	}
	n.ingested = true

	for _, rec := range doc.Stations {
		err := n.addCity(rec)
		if err != nil {
			n.Logger.Warn("skipping station record", "city", rec.City, "error", err)
			stats.SkippedStations++
			continue
		}
		stats.Cities++
		stats.Stations += 2
	}

	for i, rec := range doc.Departures {
		err := n.addDeparture(rec)
		if err != nil {
			n.Logger.Debug("skipping departure", "row", i+1, "from", rec.From, "to", rec.To, "error", err)
			stats.SkippedDepartures++
			continue
		}
		stats.Departures++
	}

	for _, station := range n.stations {
		sort.SliceStable(station.Departures, func(i, j int) bool {
			return station.Departures[i].DepartureTime < station.Departures[j].DepartureTime
		})
	}

	n.rows, n.cols = n.gridSize(doc.CountryMap)

	n.Logger.Info(
		"network loaded",
		"grid", fmt.Sprintf("%dx%d", n.rows, n.cols),
		"cities", stats.Cities,
		"stations", stats.Stations,
		"departures", stats.Departures,
		"skipped_stations", stats.SkippedStations,
		"skipped_departures", stats.SkippedDepartures,
	)

	return stats, nil
}

func (n *Network) addCity(rec model.StationRecord) error {
	row, col, err := model.GridPosition(rec.City)
	if err != nil {
		return fmt.Errorf("parsing city name: %w", err)
	}
	if _, found := n.cityByName[rec.City]; found {
		return fmt.Errorf("repeated city '%s'", rec.City)
	}
	if rec.BusStation == "" || rec.TrainStation == "" {
		return fmt.Errorf("missing station name for city '%s'", rec.City)
	}
	if rec.BusStation == rec.TrainStation {
		return fmt.Errorf("bus and train station share name '%s'", rec.BusStation)
	}
	for _, name := range []string{rec.BusStation, rec.TrainStation} {
		if _, found := n.stationByName[name]; found {
			return fmt.Errorf("repeated station '%s'", name)
		}
	}

	city := &City{
		ID:   CityID(len(n.cities)),
		Name: rec.City,
		Row:  row,
		Col:  col,
	}
	n.cities = append(n.cities, city)
	n.cityByName[city.Name] = city.ID

	city.Bus = n.addStation(rec.BusStation, model.ModeBus, city.ID)
	city.Train = n.addStation(rec.TrainStation, model.ModeTrain, city.ID)

	n.graph.AddEdge(city.Bus, graph.NewTransfer(city.Bus, city.Train))
	n.graph.AddEdge(city.Train, graph.NewTransfer(city.Train, city.Bus))

	return nil
}

func (n *Network) addStation(name string, mode model.Mode, city CityID) graph.StationID {
	station := &Station{
		ID:   graph.StationID(len(n.stations)),
		Name: name,
		Mode: mode,
		City: city,
	}
	n.stations = append(n.stations, station)
	n.stationByName[name] = station.ID
	n.graph.AddNode(station.ID)
	return station.ID
}

func (n *Network) addDeparture(rec model.DepartureRecord) error {
	fromID, found := n.stationByName[rec.From]
	if !found {
		return fmt.Errorf("unknown station '%s'", rec.From)
	}
	toID, found := n.cityByName[rec.To]
	if !found {
		return fmt.Errorf("unknown city '%s'", rec.To)
	}

	departureTime, err := clock.Parse(rec.DepartureTime)
	if err != nil {
		return fmt.Errorf("parsing departure time: %w", err)
	}
	if rec.Duration <= 0 {
		return fmt.Errorf("invalid duration %d", rec.Duration)
	}
	if rec.Price <= 0 {
		return fmt.Errorf("invalid price %d", rec.Price)
	}
	if rec.MinTransferTime < 0 {
		return fmt.Errorf("invalid minimum transfer time %d", rec.MinTransferTime)
	}

	from := n.stations[fromID]
	departure := Departure{
		From:            fromID,
		To:              toID,
		DepartureTime:   departureTime,
		Duration:        rec.Duration,
		Price:           rec.Price,
		MinTransferTime: rec.MinTransferTime,
	}
	from.Departures = append(from.Departures, departure)

	to := n.cities[toID].Station(from.Mode)
	n.graph.AddEdge(fromID, departure.edge(to))

	return nil
}

// Grid dimensions come from the country map. Documents without one
// fall back to the extent of the ingested cities.
func (n *Network) gridSize(countryMap [][]string) (int, int) {
	if len(countryMap) > 0 && len(countryMap[0]) > 0 {
		return len(countryMap), len(countryMap[0])
	}

	rows, cols := 0, 0
	for _, city := range n.cities {
		if city.Row+1 > rows {
			rows = city.Row + 1
		}
		if city.Col+1 > cols {
			cols = city.Col + 1
		}
	}
	return rows, cols
}

func (n *Network) Rows() int { return n.rows }

func (n *Network) Cols() int { return n.cols }

func (n *Network) Graph() *graph.Graph { return n.graph }

func (n *Network) City(name string) (*City, bool) {
	id, found := n.cityByName[name]
	if !found {
		return nil, false
	}
	return n.cities[id], true
}

// All cities, ordered by row and column.
func (n *Network) Cities() []*City {
	cities := make([]*City, len(n.cities))
	copy(cities, n.cities)
	sort.Slice(cities, func(i, j int) bool {
		if cities[i].Row != cities[j].Row {
			return cities[i].Row < cities[j].Row
		}
		return cities[i].Col < cities[j].Col
	})
	return cities
}

func (n *Network) Station(id graph.StationID) *Station {
	if id < 0 || int(id) >= len(n.stations) {
		return nil
	}
	return n.stations[id]
}

func (n *Network) StationByName(name string) (*Station, bool) {
	id, found := n.stationByName[name]
	if !found {
		return nil, false
	}
	return n.stations[id], true
}

func (n *Network) cityOf(id graph.StationID) *City {
	return n.cities[n.stations[id].City]
}

// Minutes until the next departure from a station to a city, or false
// if no departure serves that city.
func (n *Network) WaitingTime(currentTime int, from graph.StationID, to CityID) (int, bool) {
	station := n.Station(from)
	if station == nil {
		return 0, false
	}

	minWait := -1
	for _, departure := range station.Departures {
		if departure.To != to {
			continue
		}
		wait := clock.Wait(currentTime, departure.DepartureTime)
		if minWait == -1 || wait < minWait {
			minWait = wait
		}
	}

	if minWait == -1 {
		return 0, false
	}
	return minWait, true
}

// The departure to a city leaving soonest at or after the given
// clock time.
func (n *Network) nextDeparture(from graph.StationID, to CityID, after int) (Departure, bool) {
	var selected Departure
	found := false
	minDiff := 0

	for _, departure := range n.stations[from].Departures {
		if departure.To != to {
			continue
		}
		diff := clock.Wait(after, departure.DepartureTime)
		if !found || diff < minDiff {
			selected = departure
			minDiff = diff
			found = true
		}
	}

	return selected, found
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
