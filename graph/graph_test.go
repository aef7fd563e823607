package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphAddNode(t *testing.T) {
	g := New()
	assert.Equal(t, 0, g.NodeCount())

	g.AddNode(3)
	g.AddNode(3)
	g.AddNode(0)
	assert.Equal(t, 2, g.NodeCount())
	assert.True(t, g.HasNode(3))
	assert.True(t, g.HasNode(0))
	assert.False(t, g.HasNode(1))
	assert.False(t, g.HasNode(17))
	assert.False(t, g.HasNode(NoStation))
}

func TestGraphEdges(t *testing.T) {
	g := New()

	// Unknown stations never fail
	assert.Empty(t, g.Edges(0))
	assert.Empty(t, g.Edges(42))
	assert.Empty(t, g.Edges(NoStation))

	g.AddEdge(0, NewTransfer(0, 1))
	g.AddEdge(0, Edge{From: 0, To: 2, DepartureTime: 480, Duration: 60, Price: 100})
	g.AddEdge(0, Edge{From: 0, To: 2, DepartureTime: 480, Duration: 60, Price: 100})
	g.AddEdge(1, NewTransfer(1, 0))

	// AddEdge registers the origin
	assert.True(t, g.HasNode(1))
	assert.False(t, g.HasNode(2))

	edges := g.Edges(0)
	assert.Len(t, edges, 3)
	assert.True(t, edges[0].Transfer)
	assert.Equal(t, edges[1], edges[2], "parallel edges are kept")
	assert.Equal(t, 4, g.EdgeCount())
	assert.Empty(t, g.Edges(2))
}

func TestEdgeArrivalTime(t *testing.T) {
	transfer := NewTransfer(0, 1)
	assert.Equal(t, NoArrival, transfer.ArrivalTime())
	assert.Equal(t, TransferDuration, transfer.Duration)
	assert.Equal(t, TransferPrice, transfer.Price)
	assert.Equal(t, 0, transfer.MinTransferTime)

	service := Edge{From: 0, To: 2, DepartureTime: 1400, Duration: 60}
	assert.Equal(t, 1460, service.ArrivalTime())
}
