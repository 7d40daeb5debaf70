package plant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
)

func buildLineGraph(t *testing.T) *plant.Graph {
	t.Helper()
	g := plant.NewGraph()
	names := []string{"loader", "mill", "assembly"}
	for i, name := range names {
		require.NoError(t, g.AddStation(plant.Station{
			ID:             uint32(i + 1),
			Name:           name,
			BufferCapacity: 2,
			ServiceTime:    timedist.Normal{Mu: 2, Sigma: 0.5},
		}))
	}
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 1, Head: 2, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}}))
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 2, Head: 3, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}}))
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 3, Head: 1, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}}))
	return g
}

func TestAddTransferRequiresEndpoints(t *testing.T) {
	g := plant.NewGraph()
	require.NoError(t, g.AddStation(plant.Station{ID: 1, ServiceTime: timedist.Constant{Value: 1}}))

	err := g.AddTransfer(plant.Transfer{Tail: 1, Head: 9, TransferTime: timedist.Constant{Value: 1}})
	assert.ErrorIs(t, err, plant.ErrUnknownStation)
}

func TestNeighborEnumeration(t *testing.T) {
	g := buildLineGraph(t)

	assert.Equal(t, []uint32{2}, g.OutgoingNeighbors(1))
	assert.Equal(t, []uint32{3}, g.IncomingNeighbors(1))
	assert.Equal(t, []uint32{1}, g.IncomingNeighbors(2))
	assert.Nil(t, g.OutgoingNeighbors(99))
}

func TestDistRoundTrip(t *testing.T) {
	g := buildLineGraph(t)

	d := timedist.Uniform{A: 1, B: 3}
	require.NoError(t, g.SetVertexDist(2, d))
	got, ok := g.VertexDist(2)
	require.True(t, ok)
	assert.Equal(t, d, got)

	require.NoError(t, g.SetArcDist(1, 2, d))
	gotArc, ok := g.ArcDist(1, 2)
	require.True(t, ok)
	assert.Equal(t, d, gotArc)

	assert.Error(t, g.SetVertexDist(99, d))
	assert.Error(t, g.SetArcDist(2, 1, d))
}

func TestShortestPathLine(t *testing.T) {
	g := buildLineGraph(t)

	path, length, err := g.ShortestPath(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, path)
	assert.InDelta(t, 10, length, 1e-9)
}

func TestShortestPathSameVertex(t *testing.T) {
	g := buildLineGraph(t)

	path, length, err := g.ShortestPath(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, path)
	assert.Zero(t, length)
}

func TestShortestPathUnreachable(t *testing.T) {
	g := buildLineGraph(t)
	require.NoError(t, g.AddStation(plant.Station{ID: 4, Name: "island", ServiceTime: timedist.Constant{Value: 0}}))

	_, _, err := g.ShortestPath(1, 4)
	assert.ErrorIs(t, err, plant.ErrUnreachable)

	_, _, err = g.ShortestPath(1, 99)
	assert.ErrorIs(t, err, plant.ErrUnknownStation)
}

func TestShortestPathPrefersCheaperDetour(t *testing.T) {
	g := plant.NewGraph()
	for _, id := range []uint32{1, 2, 3} {
		require.NoError(t, g.AddStation(plant.Station{ID: id, ServiceTime: timedist.Constant{Value: 0}}))
	}
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 1, Head: 3, TransferTime: timedist.Constant{Value: 10}}))
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 1, Head: 2, TransferTime: timedist.Constant{Value: 2}}))
	require.NoError(t, g.AddTransfer(plant.Transfer{Tail: 2, Head: 3, TransferTime: timedist.Constant{Value: 3}}))

	path, length, err := g.ShortestPath(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, path)
	assert.InDelta(t, 5, length, 1e-9)
}

func TestShortestPathIdempotent(t *testing.T) {
	g := buildLineGraph(t)

	first, firstLen, err := g.ShortestPath(1, 3)
	require.NoError(t, err)
	second, secondLen, err := g.ShortestPath(1, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstLen, secondLen)
}

func TestAdjustArcByVertex(t *testing.T) {
	g := buildLineGraph(t)

	g.AdjustArcByVertex(1, 2, 2, plant.Inflate)

	d, ok := g.ArcDist(1, 2)
	require.True(t, ok)
	n, ok := d.(timedist.Normal)
	require.True(t, ok)
	assert.InDelta(t, 7, n.Mu, 1e-9)
	// sqrt(1^2 + 0.5^2)
	assert.InDelta(t, 1.118033988749895, n.Sigma, 1e-9)
}

func TestAdjustSkipsNonNormal(t *testing.T) {
	g := buildLineGraph(t)
	require.NoError(t, g.SetArcDist(1, 2, timedist.Constant{Value: 5}))

	g.AdjustArcByVertex(1, 2, 2, plant.Inflate)

	d, _ := g.ArcDist(1, 2)
	assert.Equal(t, timedist.Constant{Value: 5}, d)
}

func TestPairedAdjustRestoresArcs(t *testing.T) {
	g := buildLineGraph(t)

	before := map[[2]uint32]timedist.Normal{}
	for _, pair := range [][2]uint32{{1, 2}, {2, 3}, {3, 1}} {
		d, ok := g.ArcDist(pair[0], pair[1])
		require.True(t, ok)
		before[pair] = d.(timedist.Normal)
	}

	g.AdjustAllIncomingArcs(2, plant.Inflate)
	g.AdjustAllIncomingArcs(2, plant.Deflate)

	for pair, want := range before {
		d, ok := g.ArcDist(pair[0], pair[1])
		require.True(t, ok)
		got := d.(timedist.Normal)
		assert.InDelta(t, want.Mu, got.Mu, 1e-9)
		assert.InDelta(t, want.Sigma, got.Sigma, 1e-9)
	}
}

func TestAdjustAllIncomingNoIncomingIsNoop(t *testing.T) {
	g := plant.NewGraph()
	require.NoError(t, g.AddStation(plant.Station{ID: 7, ServiceTime: timedist.Normal{Mu: 1, Sigma: 1}}))

	// No incoming arcs: must not panic, must not change anything
	g.AdjustAllIncomingArcs(7, plant.Inflate)
}
