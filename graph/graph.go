package graph

// Directed multigraph over interned stations. Vertices are StationIDs
// handed out by the owning network; the graph is written once during
// ingestion and only read afterwards.

type StationID int32

const NoStation StationID = -1

const (
	TransferDuration = 15
	TransferPrice    = 15

	// ArrivalTime() of a transfer edge.
	NoArrival = -1
)

// A directed arc. Either a same-city transfer between the bus and
// train station, or a service edge materializing one departure.
type Edge struct {
	From            StationID
	To              StationID
	DepartureTime   int
	Duration        int
	Price           int
	MinTransferTime int
	Transfer        bool
}

// Creates a transfer edge between the two stations of a city.
func NewTransfer(from StationID, to StationID) Edge {
	return Edge{
		From:     from,
		To:       to,
		Duration: TransferDuration,
		Price:    TransferPrice,
		Transfer: true,
	}
}

// Minute of arrival, not wrapped to a single day. Transfers have no
// schedule and return NoArrival.
func (e Edge) ArrivalTime() int {
	if e.Transfer {
		return NoArrival
	}
	return e.DepartureTime + e.Duration
}

type Graph struct {
	adjacency [][]Edge
	known     []bool
	edges     int
}

func New() *Graph {
	return &Graph{}
}

func (g *Graph) grow(id StationID) {
	for int(id) >= len(g.adjacency) {
		g.adjacency = append(g.adjacency, nil)
		g.known = append(g.known, false)
	}
}

// Registers a station. Adding a known station is a no-op.
func (g *Graph) AddNode(id StationID) {
	if id < 0 {
		return
	}
	g.grow(id)
	g.known[id] = true
}

// Appends an outgoing edge to from, registering from if needed.
// Parallel edges are kept.
func (g *Graph) AddEdge(from StationID, edge Edge) {
	if from < 0 {
		return
	}
	g.AddNode(from)
	g.adjacency[from] = append(g.adjacency[from], edge)
	g.edges++
}

// Outgoing edges of a station, in insertion order. Unknown stations
// have no edges.
func (g *Graph) Edges(id StationID) []Edge {
	if id < 0 || int(id) >= len(g.adjacency) {
		return nil
	}
	return g.adjacency[id]
}

func (g *Graph) HasNode(id StationID) bool {
	return id >= 0 && int(id) < len(g.known) && g.known[id]
}

func (g *Graph) NodeCount() int {
	n := 0
	for _, k := range g.known {
		if k {
			n++
		}
	}
	return n
}

func (g *Graph) EdgeCount() int {
	return g.edges
}
