package transit

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tidbyt.dev/transit/clock"
	"tidbyt.dev/transit/graph"
	"tidbyt.dev/transit/model"
)

// Search bounds. These keep the best-first search finite on a graph
// where every city has a bus<->train transfer cycle.
const (
	// Most routes returned by a search.
	MaxRoutes = 5

	// Times an identical partial path may be expanded.
	MaxPathVisits = 10

	// Transfers taken in any single city during one search.
	MaxTransfersPerCity = 1

	// Already visited cities may be re-entered only this close to
	// the destination.
	RevisitRadius = 2

	// Hop ceiling is rows * cols * HopsPerCell.
	HopsPerCell = 3

	TransferPenalty = 100
)

var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrUnknownCity      = errors.New("unknown city")
	ErrInvalidStartTime = errors.New("invalid start time")
)

// Queue ordering cost of a candidate node, given its distance to the
// destination and whether it was reached by a transfer.
type costFunc func(node *routeNode, distance int, transfer bool) int

func criterionCost(criterion model.Criterion) (costFunc, error) {
	penalty := func(transfer bool) int {
		if transfer {
			return TransferPenalty
		}
		return 0
	}

	switch criterion {
	case model.CriterionTime:
		return func(node *routeNode, distance int, transfer bool) int {
			return node.totalTime + distance*10 + penalty(transfer)
		}, nil
	case model.CriterionPrice:
		return func(node *routeNode, distance int, transfer bool) int {
			return node.totalPrice + distance*150 + penalty(transfer)
		}, nil
	case model.CriterionTransfers:
		return func(node *routeNode, distance int, transfer bool) int {
			return node.hops*1000 + distance*10 + penalty(transfer)*1000
		}, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrUnknownCriterion, criterion)
}

// Looks up both cities by name and runs FindRoutes.
func (n *Network) FindRoutesByName(
	startCity string,
	endCity string,
	criterion model.Criterion,
	startTime int,
) ([]*Route, error) {
	start, found := n.City(startCity)
	if !found {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownCity, startCity)
	}
	end, found := n.City(endCity)
	if !found {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownCity, endCity)
	}
	return n.FindRoutes(start, end, criterion, startTime)
}

// Finds up to MaxRoutes distinct routes from start to end, leaving no
// earlier than startTime (minutes past midnight).
//
// Routes are ordered by the criterion's metric: total time, total
// price or transfer count, the latter tie-broken by total time. An
// empty result means no route was found, which is also the answer
// when start and end are the same city.
func (n *Network) FindRoutes(
	start *City,
	end *City,
	criterion model.Criterion,
	startTime int,
) ([]*Route, error) {
	cost, err := criterionCost(criterion)
	if err != nil {
		return nil, err
	}
	if !n.owns(start) || !n.owns(end) {
		return nil, ErrUnknownCity
	}
	if startTime < 0 || startTime >= clock.MinutesPerDay {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStartTime, startTime)
	}
	if start.ID == end.ID {
		return []*Route{}, nil
	}

	s := n.newSearch(start, end, cost, startTime)
	s.run()

	routes := s.routes
	sortRoutes(routes, criterion)
	if len(routes) > MaxRoutes {
		routes = routes[:MaxRoutes]
	}

	n.Logger.Debug(
		"route search finished",
		"from", start.Name,
		"to", end.Name,
		"criterion", string(criterion),
		"start", clock.Format(startTime),
		"routes", len(routes),
	)

	return routes, nil
}

func (n *Network) owns(c *City) bool {
	return c != nil && c.ID >= 0 && int(c.ID) < len(n.cities) && n.cities[c.ID] == c
}

func sortRoutes(routes []*Route, criterion model.Criterion) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		switch criterion {
		case model.CriterionTime:
			return a.TotalTime < b.TotalTime
		case model.CriterionPrice:
			return a.TotalPrice < b.TotalPrice
		case model.CriterionTransfers:
			if a.TransferCount != b.TransferCount {
				return a.TransferCount < b.TransferCount
			}
			return a.TotalTime < b.TotalTime
		}
		return false
	})
}

// A partial route in the search queue.
type routeNode struct {
	station graph.StationID
	edges   []graph.Edge

	// Concatenated "from->to;" station names of edges.
	key string

	currentTime int
	totalPrice  int
	totalTime   int
	hops        int
	cost        int
	seq         int
}

// Min-heap of routeNodes on cost. Equal costs pop in insertion order.
type routeQueue []*routeNode

func (q routeQueue) Len() int { return len(q) }

func (q routeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q routeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *routeQueue) Push(x interface{}) { *q = append(*q, x.(*routeNode)) }

func (q *routeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// State of a single FindRoutes invocation.
type search struct {
	net       *Network
	start     *City
	end       *City
	startTime int
	cost      costFunc
	maxHops   int

	queue routeQueue
	seq   int

	visitedPaths  map[string]int
	cityTransfers map[CityID]int
	visitedCities map[CityID]bool
	uniqueRoutes  map[string]bool
	routes        []*Route
}

func (n *Network) newSearch(start, end *City, cost costFunc, startTime int) *search {
	return &search{
		net:           n,
		start:         start,
		end:           end,
		startTime:     startTime,
		cost:          cost,
		maxHops:       n.rows * n.cols * HopsPerCell,
		visitedPaths:  map[string]int{},
		cityTransfers: map[CityID]int{},
		visitedCities: map[CityID]bool{start.ID: true},
		uniqueRoutes:  map[string]bool{},
	}
}

func (s *search) run() {
	s.push(&routeNode{station: s.start.Bus, currentTime: s.startTime})
	s.push(&routeNode{station: s.start.Train, currentTime: s.startTime})

	// Strict phase, ends once MaxRoutes routes are found.
	for s.queue.Len() > 0 {
		node := heap.Pop(&s.queue).(*routeNode)
		if s.step(node) && len(s.routes) >= MaxRoutes {
			break
		}
	}

	// Backfill with whatever is left in the queue.
	for len(s.routes) < MaxRoutes && s.queue.Len() > 0 {
		node := heap.Pop(&s.queue).(*routeNode)
		s.step(node)
	}
}

func (s *search) push(node *routeNode) {
	node.seq = s.seq
	s.seq++
	heap.Push(&s.queue, node)
}

// Handles a dequeued node. Reports whether a new route was recorded.
func (s *search) step(node *routeNode) bool {
	pathKey := node.key + s.net.stations[node.station].Name
	if s.visitedPaths[pathKey] >= MaxPathVisits {
		return false
	}
	s.visitedPaths[pathKey]++

	if node.station == s.end.Bus || node.station == s.end.Train {
		return s.record(node)
	}

	if node.hops >= s.maxHops {
		return false
	}

	s.expand(node)
	return false
}

func (s *search) record(node *routeNode) bool {
	if s.uniqueRoutes[node.key] {
		return false
	}
	s.uniqueRoutes[node.key] = true

	transfers := 0
	for _, e := range node.edges {
		if e.Transfer {
			transfers++
		}
	}

	s.routes = append(s.routes, &Route{
		Edges:         node.edges,
		TotalTime:     node.totalTime,
		TotalPrice:    node.totalPrice,
		TransferCount: transfers,
		StartTime:     s.startTime,
		network:       s.net,
	})

	return true
}

func (s *search) expand(node *routeNode) {
	currentCity := s.net.cityOf(node.station)

	for _, edge := range s.net.graph.Edges(node.station) {
		next := &routeNode{
			station: edge.To,
			hops:    node.hops + 1,
		}

		if edge.Transfer {
			if s.cityTransfers[currentCity.ID] >= MaxTransfersPerCity {
				continue
			}
			s.cityTransfers[currentCity.ID]++

			next.currentTime = clock.Add(node.currentTime, edge.Duration)
			next.totalTime = node.totalTime + edge.Duration
			next.totalPrice = node.totalPrice + edge.Price
		} else {
			toCity := s.net.cityOf(edge.To)
			wait, ok := s.net.WaitingTime(node.currentTime, node.station, toCity.ID)
			if !ok {
				continue
			}

			departure, ok := s.net.nextDeparture(node.station, toCity.ID, clock.Add(node.currentTime, wait))
			if !ok {
				continue
			}

			next.currentTime = clock.Add(departure.ArrivalTime(), departure.MinTransferTime)
			next.totalTime = node.totalTime + wait + departure.Duration
			next.totalPrice = node.totalPrice + departure.Price
			edge = departure.edge(edge.To)
		}

		nextCity := s.net.cityOf(next.station)
		distance := nextCity.Distance(s.end)

		if s.visitedCities[nextCity.ID] && nextCity.ID != s.end.ID && distance > RevisitRadius {
			continue
		}

		if s.visitedPaths[node.key+s.net.stations[next.station].Name] >= MaxPathVisits {
			continue
		}

		next.cost = s.cost(next, distance, edge.Transfer)
		next.edges = make([]graph.Edge, len(node.edges)+1)
		copy(next.edges, node.edges)
		next.edges[len(node.edges)] = edge
		next.key = node.key + edgeKey(s.net, edge)

		s.push(next)

		if !edge.Transfer {
			s.visitedCities[nextCity.ID] = true
		}
	}
}

func edgeKey(n *Network, e graph.Edge) string {
	var b strings.Builder
	b.WriteString(n.stations[e.From].Name)
	b.WriteString("->")
	b.WriteString(n.stations[e.To].Name)
	b.WriteString(";")
	return b.String()
}
