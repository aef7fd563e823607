package transit

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/transit/generator"
	"tidbyt.dev/transit/model"
	"tidbyt.dev/transit/testutil"
)

// Station name pairs of a route's edges, e.g. "A_0_0->Z_0_0".
func routeHops(n *Network, r *Route) []string {
	hops := []string{}
	for _, e := range r.Edges {
		hops = append(hops, fmt.Sprintf("%s->%s", n.Station(e.From).Name, n.Station(e.To).Name))
	}
	return hops
}

func TestFindRoutesSingleDeparture(t *testing.T) {
	n := buildNetwork(t, testutil.BuildDocument(
		1, 2,
		testutil.Bus("A_0_0", "G_0_1", "08:00", 60, 100, 10),
	))

	routes, err := n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(routes))

	r := routes[0]
	assert.Equal(t, []string{"A_0_0->A_0_1"}, routeHops(n, r))
	assert.Equal(t, 540, r.TotalTime)
	assert.Equal(t, 100, r.TotalPrice)
	assert.Equal(t, 0, r.TransferCount)
	assert.Equal(t, "A_0_0", r.StartStation().Name)
	assert.Equal(t, "A_0_1", r.EndStation().Name)
}

func TestFindRoutesNoRoute(t *testing.T) {
	n := buildNetwork(t, testutil.BuildDocument(
		1, 3,
		testutil.Bus("A_0_1", "G_0_2", "08:00", 60, 100, 10),
	))

	routes, err := n.FindRoutesByName("G_0_0", "G_0_2", model.CriterionTime, 480)
	require.NoError(t, err)
	assert.Equal(t, 0, len(routes))
}

func TestFindRoutesAcrossMidnight(t *testing.T) {
	n := buildNetwork(t, testutil.BuildDocument(
		1, 2,
		testutil.Bus("A_0_0", "G_0_1", "00:30", 60, 100, 0),
	))

	routes, err := n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, 23*60)
	require.NoError(t, err)
	require.Equal(t, 1, len(routes))

	// 90 minutes wait plus 60 minutes travel
	assert.Equal(t, 150, routes[0].TotalTime)
}

func TestFindRoutesMultiHop(t *testing.T) {
	n := buildNetwork(t, testutil.BuildDocument(
		1, 3,
		testutil.Bus("A_0_0", "G_0_1", "08:00", 60, 100, 0),
		testutil.Bus("A_0_1", "G_0_2", "10:00", 60, 250, 0),
	))

	routes, err := n.FindRoutesByName("G_0_0", "G_0_2", model.CriterionTime, 480)
	require.NoError(t, err)
	require.Equal(t, 1, len(routes))

	r := routes[0]
	assert.Equal(t, []string{"A_0_0->A_0_1", "A_0_1->A_0_2"}, routeHops(n, r))

	// 60 travel, 60 wait, 60 travel
	assert.Equal(t, 180, r.TotalTime)
	assert.Equal(t, 350, r.TotalPrice)
	assert.Equal(t, 0, r.TransferCount)
}

// Bus is fast and expensive, train slow and cheap. Switching to the
// train at the start misses the 08:00 departure and waits a day.
func criterionDocument() *model.Document {
	return testutil.BuildDocument(
		1, 2,
		testutil.Bus("A_0_0", "G_0_1", "08:00", 60, 500, 0),
		testutil.Train("Z_0_0", "G_0_1", "08:00", 180, 100, 0),
	)
}

func TestFindRoutesByCriterion(t *testing.T) {
	bus := []string{"A_0_0->A_0_1"}
	train := []string{"Z_0_0->Z_0_1"}
	transfer := []string{"A_0_0->Z_0_0", "Z_0_0->Z_0_1"}

	for _, tc := range []struct {
		criterion model.Criterion
		expected  [][]string
	}{
		{model.CriterionTime, [][]string{bus, train, transfer}},
		{model.CriterionPrice, [][]string{train, transfer, bus}},
		{model.CriterionTransfers, [][]string{bus, train, transfer}},
	} {
		t.Run(string(tc.criterion), func(t *testing.T) {
			n := buildNetwork(t, criterionDocument())

			routes, err := n.FindRoutesByName("G_0_0", "G_0_1", tc.criterion, 480)
			require.NoError(t, err)

			hops := [][]string{}
			for _, r := range routes {
				hops = append(hops, routeHops(n, r))
			}
			assert.Equal(t, tc.expected, hops)
		})
	}
}

func TestFindRoutesTotals(t *testing.T) {
	n := buildNetwork(t, criterionDocument())

	routes, err := n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, 480)
	require.NoError(t, err)
	require.Equal(t, 3, len(routes))

	assert.Equal(t, 60, routes[0].TotalTime)
	assert.Equal(t, 500, routes[0].TotalPrice)
	assert.Equal(t, 0, routes[0].TransferCount)

	assert.Equal(t, 180, routes[1].TotalTime)
	assert.Equal(t, 100, routes[1].TotalPrice)
	assert.Equal(t, 0, routes[1].TransferCount)

	// 15 transfer, wait until 08:00 tomorrow, 180 travel
	assert.Equal(t, 15+1425+180, routes[2].TotalTime)
	assert.Equal(t, 115, routes[2].TotalPrice)
	assert.Equal(t, 1, routes[2].TransferCount)
}

func TestFindRoutesErrors(t *testing.T) {
	n := buildNetwork(t, criterionDocument())
	other := buildNetwork(t, criterionDocument())

	_, err := n.FindRoutesByName("G_0_0", "G_0_1", model.Criterion("scenery"), 480)
	assert.True(t, errors.Is(err, ErrUnknownCriterion))

	_, err = n.FindRoutesByName("G_0_0", "G_4_4", model.CriterionTime, 480)
	assert.True(t, errors.Is(err, ErrUnknownCity))

	_, err = n.FindRoutesByName("nowhere", "G_0_1", model.CriterionTime, 480)
	assert.True(t, errors.Is(err, ErrUnknownCity))

	_, err = n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, 1440)
	assert.True(t, errors.Is(err, ErrInvalidStartTime))

	_, err = n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, -1)
	assert.True(t, errors.Is(err, ErrInvalidStartTime))

	// Nothing to travel to
	routes, err := n.FindRoutesByName("G_0_0", "G_0_0", model.CriterionTime, 480)
	require.NoError(t, err)
	assert.Equal(t, 0, len(routes))

	// Cities of another network are not accepted
	start, _ := other.City("G_0_0")
	end, _ := n.City("G_0_1")
	_, err = n.FindRoutes(start, end, model.CriterionTime, 480)
	assert.True(t, errors.Is(err, ErrUnknownCity))

	_, err = n.FindRoutes(nil, end, model.CriterionTime, 480)
	assert.True(t, errors.Is(err, ErrUnknownCity))
}

func hopCounts(routes []*Route) []int {
	counts := []int{}
	for _, r := range routes {
		counts = append(counts, len(r.Edges))
	}
	sort.Ints(counts)
	return counts
}

func containsHop(n *Network, r *Route, hop string) bool {
	for _, h := range routeHops(n, r) {
		if h == hop {
			return true
		}
	}
	return false
}

// All departures leave at 08:00 and take an hour, so every extra hop
// costs a day and longer routes are always slower.
func TestFindRoutesRevisitRadius(t *testing.T) {
	n := buildNetwork(t, testutil.BuildDocument(
		1, 6,
		testutil.Bus("A_0_0", "G_0_1", "08:00", 60, 100, 0),
		testutil.Bus("A_0_1", "G_0_0", "08:00", 60, 100, 0),
		testutil.Bus("A_0_1", "G_0_2", "08:00", 60, 100, 0),
		testutil.Bus("A_0_2", "G_0_3", "08:00", 60, 100, 0),
		testutil.Bus("A_0_3", "G_0_4", "08:00", 60, 100, 0),
		testutil.Bus("A_0_4", "G_0_3", "08:00", 60, 100, 0),
		testutil.Bus("A_0_4", "G_0_5", "08:00", 60, 100, 0),
	))

	routes, err := n.FindRoutesByName("G_0_0", "G_0_5", model.CriterionTime, 480)
	require.NoError(t, err)
	require.Equal(t, MaxRoutes, len(routes))

	// Direct route, then one to four loops between G_0_3 and G_0_4
	assert.Equal(t, []int{5, 7, 9, 11, 13}, hopCounts(routes))
	assert.Equal(t, 60+4*1440, routes[0].TotalTime)
	for i, r := range routes {
		// G_0_0 is 5 away from G_0_5, too far to go back to
		assert.False(t, containsHop(n, r, "A_0_1->A_0_0"), "route %d returns to start", i)
		assert.Equal(t, i > 0, containsHop(n, r, "A_0_4->A_0_3"), "route %d", i)
	}
}

func TestFindRoutesHopCeiling(t *testing.T) {
	// G_0_0 is within revisit radius of G_0_2, so the search can go
	// back and forth between G_0_0 and G_0_1 until the ceiling.
	n := buildNetwork(t, testutil.BuildDocument(
		1, 3,
		testutil.Bus("A_0_0", "G_0_1", "08:00", 60, 100, 0),
		testutil.Bus("A_0_1", "G_0_0", "08:00", 60, 100, 0),
		testutil.Bus("A_0_1", "G_0_2", "08:00", 60, 100, 0),
	))
	ceiling := 1 * 3 * HopsPerCell

	routes, err := n.FindRoutesByName("G_0_0", "G_0_2", model.CriterionTime, 480)
	require.NoError(t, err)

	// A 10 hop route exists but passes the ceiling of 9
	assert.Equal(t, []int{2, 4, 6, 8}, hopCounts(routes))
	for _, r := range routes {
		assert.True(t, len(r.Edges) <= ceiling)
	}
}

func TestFindRoutesTransferCap(t *testing.T) {
	n := buildNetwork(t, criterionDocument())

	// The bus station expands first and uses G_0_0's only transfer, so
	// the train start can't transfer back to the bus.
	routes, err := n.FindRoutesByName("G_0_0", "G_0_1", model.CriterionTime, 480)
	require.NoError(t, err)
	require.Equal(t, 3, len(routes))
	for _, r := range routes {
		assert.False(t, containsHop(n, r, "Z_0_0->A_0_0"))
	}

	// On larger grids, all transfers taken in a city share one
	// partial path.
	for seed := int64(1); seed <= 5; seed++ {
		g, err := generator.New(3, 3, seed)
		require.NoError(t, err)
		n := buildNetwork(t, g.Generate())

		for _, criterion := range []model.Criterion{
			model.CriterionTime,
			model.CriterionPrice,
			model.CriterionTransfers,
		} {
			routes, err := n.FindRoutesByName("G_0_0", "G_2_2", criterion, 480)
			require.NoError(t, err)

			transfers := map[CityID]string{}
			for _, r := range routes {
				prefix := ""
				for _, e := range r.Edges {
					key := edgeKey(n, e)
					if e.Transfer {
						city := n.Station(e.From).City
						if prev, found := transfers[city]; found {
							assert.Equal(t, prev, prefix+key, "seed %d %s", seed, criterion)
						}
						transfers[city] = prefix + key
					}
					prefix += key
				}
			}
		}
	}
}

func TestFindRoutesPathVisits(t *testing.T) {
	// Twelve parallel departures to G_0_1 all resolve to the 08:00
	// service, giving twelve identical partial paths.
	deps := []model.DepartureRecord{}
	for h := 0; h < 12; h++ {
		deps = append(deps, testutil.Bus("A_0_0", "G_0_1", fmt.Sprintf("%02d:00", h), 60, 100, 0))
	}
	deps = append(deps, testutil.Bus("A_0_1", "G_0_2", "10:00", 60, 100, 0))
	n := buildNetwork(t, testutil.BuildDocument(1, 3, deps...))

	start, _ := n.City("G_0_0")
	end, _ := n.City("G_0_2")
	cost, err := criterionCost(model.CriterionTime)
	require.NoError(t, err)

	s := n.newSearch(start, end, cost, 480)
	s.run()

	require.Equal(t, 1, len(s.routes))
	assert.Equal(t, MaxPathVisits, s.visitedPaths["A_0_0->A_0_1;A_0_1"])
	assert.Equal(t, MaxPathVisits, s.visitedPaths["A_0_0->A_0_1;A_0_1->A_0_2;A_0_2"])
}

func metric(r *Route, criterion model.Criterion) int {
	switch criterion {
	case model.CriterionPrice:
		return r.TotalPrice
	case model.CriterionTransfers:
		return r.TransferCount
	}
	return r.TotalTime
}

func TestFindRoutesGeneratedProperties(t *testing.T) {
	criteria := []model.Criterion{
		model.CriterionTime,
		model.CriterionPrice,
		model.CriterionTransfers,
	}

	for seed := int64(1); seed <= 5; seed++ {
		g, err := generator.New(3, 3, seed)
		require.NoError(t, err)
		doc := g.Generate()

		for _, criterion := range criteria {
			t.Run(fmt.Sprintf("seed_%d_%s", seed, criterion), func(t *testing.T) {
				n := buildNetwork(t, doc)
				start, _ := n.City("G_0_0")
				end, _ := n.City("G_2_2")

				routes, err := n.FindRoutes(start, end, criterion, 480)
				require.NoError(t, err)
				assert.True(t, len(routes) <= MaxRoutes)

				keys := map[string]bool{}
				for i, r := range routes {
					require.NotEmpty(t, r.Edges)

					assert.False(t, keys[r.Key()], "duplicate route %s", r.Key())
					keys[r.Key()] = true

					assert.Equal(t, start.ID, n.Station(r.Edges[0].From).City)
					assert.Equal(t, end.ID, n.Station(r.Edges[len(r.Edges)-1].To).City)

					price, transfers, travel := 0, 0, 0
					for j, e := range r.Edges {
						if j > 0 {
							assert.Equal(t, r.Edges[j-1].To, e.From)
						}
						price += e.Price
						travel += e.Duration
						if e.Transfer {
							transfers++
						}
					}
					assert.Equal(t, price, r.TotalPrice)
					assert.Equal(t, transfers, r.TransferCount)
					assert.True(t, r.TotalTime >= travel)

					if i > 0 {
						prev := routes[i-1]
						assert.True(t, metric(prev, criterion) <= metric(r, criterion))
						if criterion == model.CriterionTransfers && prev.TransferCount == r.TransferCount {
							assert.True(t, prev.TotalTime <= r.TotalTime)
						}
					}
				}
			})
		}
	}
}

// Searches share no state, so the same network can serve concurrent
// callers and repeated searches give identical answers.
func TestFindRoutesRepeatable(t *testing.T) {
	g, err := generator.New(4, 4, 3)
	require.NoError(t, err)
	n := buildNetwork(t, g.Generate())

	first, err := n.FindRoutesByName("G_0_0", "G_3_3", model.CriterionPrice, 600)
	require.NoError(t, err)

	done := make(chan []*Route, 4)
	for i := 0; i < 4; i++ {
		go func() {
			routes, err := n.FindRoutesByName("G_0_0", "G_3_3", model.CriterionPrice, 600)
			if err != nil {
				done <- nil
				return
			}
			done <- routes
		}()
	}

	for i := 0; i < 4; i++ {
		routes := <-done
		require.Equal(t, len(first), len(routes))
		for j := range routes {
			assert.Equal(t, first[j].Key(), routes[j].Key())
			assert.Equal(t, first[j].TotalPrice, routes[j].TotalPrice)
		}
	}
}
