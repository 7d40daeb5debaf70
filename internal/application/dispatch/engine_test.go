package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/process"
	"github.com/reconfigmanus/mes-go/internal/domain/product"
	"github.com/reconfigmanus/mes-go/internal/domain/shared"
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
	"github.com/reconfigmanus/mes-go/internal/domain/tray"
)

const (
	stationA uint32 = 1
	stationB uint32 = 2
	stationC uint32 = 3

	procMill   uint8 = 11
	procPolish uint8 = 12
)

type fixture struct {
	engine  *dispatch.Engine
	graph   *plant.Graph
	orders  *order.Manager
	procs   *process.Manager
	trays   *tray.Registry
	journal *fakeJournal
}

type journalEvent struct {
	kind    string
	orderID uint32
	detail  uint32
}

type fakeJournal struct {
	events []journalEvent
}

func (j *fakeJournal) OrderCreated(orderID uint32, productType uint8) {
	j.events = append(j.events, journalEvent{kind: "created", orderID: orderID, detail: uint32(productType)})
}

func (j *fakeJournal) OrderAssigned(orderID, trayID uint32) {
	j.events = append(j.events, journalEvent{kind: "assigned", orderID: orderID, detail: trayID})
}

func (j *fakeJournal) ProcessCompleted(orderID uint32, proc uint8, stationID uint32) {
	j.events = append(j.events, journalEvent{kind: "process", orderID: orderID, detail: uint32(proc)})
}

func (j *fakeJournal) OrderFinished(orderID uint32) {
	j.events = append(j.events, journalEvent{kind: "finished", orderID: orderID})
}

// Ring plant A -> B -> C -> A. A assigns orders, B mills, C polishes.
func newFixture(t *testing.T, plan []uint8) *fixture {
	t.Helper()

	g := plant.NewGraph()
	for _, st := range []plant.Station{
		{ID: stationA, Name: "loading", BufferCapacity: 4, ServiceTime: timedist.Normal{Mu: 2, Sigma: 0.5}},
		{ID: stationB, Name: "milling", BufferCapacity: 2, ServiceTime: timedist.Normal{Mu: 2, Sigma: 0.5}},
		{ID: stationC, Name: "polishing", BufferCapacity: 2, ServiceTime: timedist.Normal{Mu: 2, Sigma: 0.5}},
	} {
		require.NoError(t, g.AddStation(st))
	}
	for _, tr := range []plant.Transfer{
		{Tail: stationA, Head: stationB, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}},
		{Tail: stationB, Head: stationC, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}},
		{Tail: stationC, Head: stationA, TransferTime: timedist.Normal{Mu: 5, Sigma: 1}},
	} {
		require.NoError(t, g.AddTransfer(tr))
	}

	procs := process.NewManager(product.New(1, "widget", plan))
	procs.RegisterStation(stationA, nil, true)
	procs.RegisterStation(stationB, []uint8{procMill}, false)
	procs.RegisterStation(stationC, []uint8{procPolish}, false)

	orders := order.NewManager()
	trays := tray.NewRegistry()
	journal := &fakeJournal{}

	return &fixture{
		engine:  dispatch.NewEngine(g, orders, procs, trays, journal, nil),
		graph:   g,
		orders:  orders,
		procs:   procs,
		trays:   trays,
		journal: journal,
	}
}

func arcMu(t *testing.T, g *plant.Graph, tail, head uint32) float64 {
	t.Helper()
	d, ok := g.ArcDist(tail, head)
	require.True(t, ok)
	n, ok := d.(timedist.Normal)
	require.True(t, ok)
	return n.Mu
}

func TestArrivalWithNoWaitingOrders(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})

	assert.Equal(t, shared.NoneID, rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	assert.Equal(t, stationB, rsp.NextStationID)
}

func TestArrivalAssignsWaitingOrderAndRoutes(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})

	assert.Equal(t, uint32(1), rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	assert.Equal(t, stationB, rsp.NextStationID)
	assert.Zero(t, f.orders.WaitingCount())

	info := f.trays.GetOrCreate(7)
	assert.True(t, info.ExecutingOrder)
	assert.Equal(t, uint32(1), info.CurrentOrderID)
}

func TestArrivalAtCapableStationExecutesAndInflatesArcs(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	assert.Equal(t, uint32(1), rsp.OrderID)
	assert.Equal(t, dispatch.ActionExecute, rsp.Action)
	// Commitment to execute at B inflates B's incoming arc by B's service mean
	assert.InDelta(t, 7, arcMu(t, f.graph, stationA, stationB), 1e-9)
}

func TestActionDoneRecordsProcessAndRoutesOnward(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	rsp := f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	assert.Equal(t, uint32(1), rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	assert.Equal(t, stationC, rsp.NextStationID)

	o, ok := f.orders.Order(1)
	require.True(t, ok)
	assert.Equal(t, []uint8{procMill}, o.ExecutedProcesses)
	// The inflation applied on EXECUTE has been reverted
	assert.InDelta(t, 5, arcMu(t, f.graph, stationA, stationB), 1e-9)
}

func TestLastProcessDoneFinishesOrderAndResetsTray(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})
	f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationC, TrayID: 7})
	assert.Equal(t, dispatch.ActionExecute, rsp.Action)

	rsp = f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationC, TrayID: 7})

	assert.Equal(t, shared.NoneID, rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	assert.Equal(t, stationA, rsp.NextStationID)

	o, ok := f.orders.Order(1)
	require.True(t, ok)
	assert.Equal(t, order.StatusFinished, o.Status)
	assert.Equal(t, []uint8{procMill, procPolish}, o.ExecutedProcesses)

	info := f.trays.GetOrCreate(7)
	assert.False(t, info.ExecutingOrder)
	assert.Equal(t, shared.NoneID, info.CurrentOrderID)
	assert.Equal(t, 1, f.orders.FinishedCount())
}

func TestUnreachableCapableStationFallsBackToDefault(t *testing.T) {
	const procExotic uint8 = 13
	f := newFixture(t, []uint8{procMill, procExotic})
	// Detached station with no incoming arcs is the only one advertising
	// the second process
	require.NoError(t, f.graph.AddStation(plant.Station{ID: 9, Name: "island", ServiceTime: timedist.Normal{Mu: 1, Sigma: 1}}))
	f.procs.RegisterStation(9, []uint8{procExotic}, false)

	f.engine.CreateOrderBatch(1)
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	rsp := f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	assert.Equal(t, shared.NoneID, rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	// Default next hop from B toward the returning station A
	assert.Equal(t, stationC, rsp.NextStationID)
}

func TestNoCapableStationReleasesWithoutOrder(t *testing.T) {
	const procUnknown uint8 = 42
	f := newFixture(t, []uint8{procUnknown})
	f.engine.CreateOrderBatch(1)

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})

	assert.Equal(t, shared.NoneID, rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
}

func TestActionDoneWithoutOrderFallsThroughToArrival(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)

	// Protocol violation: done query for an idle tray behaves like an
	// arrival, which at the assigning station hands out the waiting order
	rsp := f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationA, TrayID: 9})

	assert.Equal(t, uint32(1), rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	assert.Equal(t, stationB, rsp.NextStationID)
}

func TestArrivalAtNonAssigningStationWithoutOrder(t *testing.T) {
	f := newFixture(t, []uint8{procMill, procPolish})
	f.engine.CreateOrderBatch(1)

	rsp := f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	assert.Equal(t, shared.NoneID, rsp.OrderID)
	assert.Equal(t, dispatch.ActionRelease, rsp.Action)
	// Toward the returning station A
	assert.Equal(t, stationC, rsp.NextStationID)
	assert.Equal(t, 1, f.orders.WaitingCount())
}

func TestJournalReceivesLifecycleEvents(t *testing.T) {
	f := newFixture(t, []uint8{procMill})
	f.engine.CreateOrderBatch(1)
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})
	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})
	f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	var kinds []string
	for _, ev := range f.journal.events {
		kinds = append(kinds, ev.kind)
	}
	assert.Equal(t, []string{"created", "assigned", "process", "finished"}, kinds)
}

func TestTrayStateMatchesOrderStatus(t *testing.T) {
	f := newFixture(t, []uint8{procMill})
	f.engine.CreateOrderBatch(2)

	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationA, TrayID: 7})
	info := f.trays.GetOrCreate(7)
	o, _ := f.orders.Order(info.CurrentOrderID)
	assert.True(t, info.ExecutingOrder)
	assert.Equal(t, order.StatusExecuting, o.Status)
	assert.Equal(t, uint32(7), o.TrayID)

	f.engine.HandleActionQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})
	f.engine.HandleActionDoneQuery(dispatch.Query{WorkstationID: stationB, TrayID: 7})

	assert.False(t, info.ExecutingOrder)
	assert.True(t, f.orders.IsDone(1))
}
