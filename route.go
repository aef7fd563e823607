package transit

import (
	"fmt"
	"strings"

	"tidbyt.dev/transit/clock"
	"tidbyt.dev/transit/graph"
)

// A route found by FindRoutes. Edges chain from a station of the start
// city to a station of the end city.
type Route struct {
	Edges         []graph.Edge
	TotalTime     int
	TotalPrice    int
	TransferCount int

	// Clock time the search started from.
	StartTime int

	network *Network
}

func (r *Route) StartStation() *Station {
	if len(r.Edges) == 0 || r.network == nil {
		return nil
	}
	return r.network.Station(r.Edges[0].From)
}

func (r *Route) EndStation() *Station {
	if len(r.Edges) == 0 || r.network == nil {
		return nil
	}
	return r.network.Station(r.Edges[len(r.Edges)-1].To)
}

// All stations visited, in order, starting station included.
func (r *Route) Stations() []*Station {
	if len(r.Edges) == 0 || r.network == nil {
		return nil
	}
	stations := []*Station{r.network.Station(r.Edges[0].From)}
	for _, e := range r.Edges {
		stations = append(stations, r.network.Station(e.To))
	}
	return stations
}

// Identifies the route by its ordered "from->to;" station pairs. No
// two routes returned by one search share a key.
func (r *Route) Key() string {
	if r.network == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range r.Edges {
		b.WriteString(edgeKey(r.network, e))
	}
	return b.String()
}

// Renders the route as one line per segment. Consecutive services of
// the same mode collapse into one segment; every change of mode is
// announced as a transfer. The last segment ends at the city the
// traveller asked for, followed by a line with the totals.
func (r *Route) Description(end *City) string {
	if len(r.Edges) == 0 || end == nil || r.network == nil {
		return "No route"
	}

	lines := []string{}

	var segStart, segEnd *Station
	for _, e := range r.Edges {
		from := r.network.Station(e.From)
		to := r.network.Station(e.To)

		if e.Transfer {
			if segStart != nil {
				lines = append(lines, fmt.Sprintf("%s to %s (%s)", segStart.Name, segEnd.Name, segStart.Mode))
				segStart = nil
			}
			lines = append(lines, fmt.Sprintf("Transfer at %s (%s)", to.Name, to.Mode))
			continue
		}

		if segStart != nil && segEnd == from && segStart.Mode == from.Mode {
			segEnd = to
			continue
		}

		if segStart != nil {
			lines = append(lines, fmt.Sprintf("%s to %s (%s)", segStart.Name, segEnd.Name, segStart.Mode))
			if segStart.Mode != from.Mode {
				lines = append(lines, fmt.Sprintf("Transfer at %s (%s)", from.Name, from.Mode))
			}
		}
		segStart, segEnd = from, to
	}

	if segStart != nil {
		lines = append(lines, fmt.Sprintf("%s to %s (%s)", segStart.Name, end.Name, segStart.Mode))
	} else {
		last := r.EndStation()
		lines = append(lines, fmt.Sprintf("%s to %s", last.Name, end.Name))
	}

	lines = append(lines, fmt.Sprintf("Total: %s, %d units.", clock.FormatDuration(r.TotalTime), r.TotalPrice))

	return strings.Join(lines, "\n")
}

// Single line itinerary with the clock time at each station.
func (r *Route) String() string {
	start := r.StartStation()
	if start == nil {
		return "No route"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", start.Name, clock.Format(r.StartTime))

	current := r.StartTime
	for _, e := range r.Edges {
		to := r.network.Station(e.To)
		if e.Transfer {
			current = clock.Add(current, e.Duration)
			fmt.Fprintf(&b, " -> %s (transfer, %s)", to.Name, clock.Format(current))
			continue
		}
		current = clock.Normalize(e.ArrivalTime())
		fmt.Fprintf(&b, " -> %s (%s)", to.Name, clock.Format(current))
		current = clock.Add(current, e.MinTransferTime)
	}

	fmt.Fprintf(
		&b,
		" | Total: %s | Price: %d | Transfers: %d",
		clock.FormatDuration(r.TotalTime),
		r.TotalPrice,
		r.TransferCount,
	)

	return b.String()
}
