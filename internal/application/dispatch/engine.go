// Package dispatch implements the MES decision engine: for every station
// query it decides whether the tray executes the local process or is
// released toward another station.
package dispatch

import (
	"log"
	"math"
	"sync"

	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/process"
	"github.com/reconfigmanus/mes-go/internal/domain/shared"
	"github.com/reconfigmanus/mes-go/internal/domain/tray"
)

// Action is the decision returned to a station
type Action uint32

const (
	// ActionRelease tells the station to send the tray to NextStationID
	ActionRelease Action = 0
	// ActionExecute tells the station to run its local process; the next
	// station field is ignored
	ActionExecute Action = 1
)

// Query is a station's question about a tray, either on arrival or after
// finishing local work
type Query struct {
	WorkstationID uint32
	TrayID        uint32
}

// Response is the dispatch decision. OrderID and NextStationID use
// shared.NoneID as the "nothing" sentinel.
type Response struct {
	Query         Query
	OrderID       uint32
	Action        Action
	NextStationID uint32
}

// Engine ties the station graph, order pool, process plan and tray
// registry into a single decision per query.
//
// Concurrency model: parallel readers, serialised decisions. Every
// connection goroutine may call the handlers; one coarse mutex spans all
// engine state. This keeps the paired inflate/deflate arc adjustments
// trivially serialisable. Decisions are pure in-memory work and never
// block.
type Engine struct {
	mu sync.Mutex

	graph     *plant.Graph
	orders    *order.Manager
	processes *process.Manager
	trays     *tray.Registry

	journal Journal
	metrics DecisionRecorder
}

// NewEngine creates a dispatch engine. journal and metrics may be nil.
func NewEngine(graph *plant.Graph, orders *order.Manager, processes *process.Manager, trays *tray.Registry, journal Journal, metrics DecisionRecorder) *Engine {
	if journal == nil {
		journal = NopJournal{}
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Engine{
		graph:     graph,
		orders:    orders,
		processes: processes,
		trays:     trays,
		journal:   journal,
		metrics:   metrics,
	}
}

// CreateOrderBatch creates n waiting orders for the active product type
func (e *Engine) CreateOrderBatch(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	productType := e.processes.Product().Type
	for i := 0; i < n; i++ {
		id := e.orders.CreateOrder(productType)
		e.journal.OrderCreated(id, productType)
	}
	log.Printf("[MES] Created %d orders for product type %d", n, productType)
	e.observeQueues()
}

// HandleActionQuery answers a tray's arrival at a station
func (e *Engine) HandleActionQuery(q Query) Response {
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Printf("[MES] Action query received: workstation_id: %d, tray_id: %d", q.WorkstationID, q.TrayID)
	rsp := e.actionQuery(q)
	e.metrics.RecordDecision("action_query", rsp.Action)
	e.observeQueues()
	return rsp
}

// HandleActionDoneQuery answers a tray that finished local work: the
// completed process is recorded, the congestion inflation on the station's
// incoming arcs is reversed, and the arrival policy decides what happens
// next.
func (e *Engine) HandleActionDoneQuery(q Query) Response {
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Printf("[MES] Action done query received: workstation_id: %d, tray_id: %d", q.WorkstationID, q.TrayID)

	info := e.trays.GetOrCreate(q.TrayID)
	if !info.ExecutingOrder {
		// Protocol violation; treat the query as a plain arrival
		log.Printf("[MES] Action done for tray %d with no executing order", q.TrayID)
		rsp := e.actionQuery(q)
		e.metrics.RecordDecision("action_done_query", rsp.Action)
		e.observeQueues()
		return rsp
	}
	if _, ok := e.orders.Order(info.CurrentOrderID); !ok {
		log.Printf("[MES] Action done for non-existing order %d", info.CurrentOrderID)
		rsp := e.defaultResponse(q, info)
		e.metrics.RecordDecision("action_done_query", rsp.Action)
		return rsp
	}

	// One process per station: the station's first configured capability
	// is the step that just completed
	if proc, ok := e.processes.FirstCapabilityOf(q.WorkstationID); ok {
		e.orders.RecordProcessSuccess(info.CurrentOrderID, proc)
		e.journal.ProcessCompleted(info.CurrentOrderID, proc, q.WorkstationID)
	} else {
		log.Printf("[MES] Station %d has no configured process, nothing recorded", q.WorkstationID)
	}

	e.graph.AdjustAllIncomingArcs(q.WorkstationID, plant.Deflate)

	rsp := e.actionQuery(q)
	e.metrics.RecordDecision("action_done_query", rsp.Action)
	e.observeQueues()
	return rsp
}

// actionQuery is the arrival policy. Callers hold the engine lock.
func (e *Engine) actionQuery(q Query) Response {
	info := e.trays.GetOrCreate(q.TrayID)
	rsp := e.defaultResponse(q, info)

	if !info.ExecutingOrder {
		if !e.processes.IsOrderAssigningStation(q.WorkstationID) {
			log.Printf("[MES] Tray %d not at order assigning station, default release", q.TrayID)
			return rsp
		}
		if e.orders.WaitingCount() == 0 {
			log.Printf("[MES] No order waiting, default release")
			return rsp
		}
		orderID, ok := e.orders.TryAssignToTray(q.TrayID)
		if !ok {
			log.Printf("[MES] Assigning order failed, default release")
			return rsp
		}
		info.ExecutingOrder = true
		info.CurrentOrderID = orderID
		rsp.OrderID = orderID
		e.journal.OrderAssigned(orderID, q.TrayID)
	}

	ord, ok := e.orders.Order(info.CurrentOrderID)
	if !ok {
		log.Printf("[MES] Executing order %d not found", info.CurrentOrderID)
		return rsp
	}

	proc, ok := e.processes.NextProcessFor(ord)
	if !ok {
		// No further work (or a diverged history, treated the same):
		// complete the order and idle the tray
		e.orders.Finish(ord.ID)
		e.journal.OrderFinished(ord.ID)
		info.Reset()
		rsp.OrderID = shared.NoneID
		log.Printf("[MES] Order %d complete, tray %d status reset", ord.ID, q.TrayID)
		return rsp
	}

	if !e.processes.CanStationExecute(proc, q.WorkstationID) {
		next, ok := e.planRouteToProcess(q.WorkstationID, proc)
		if !ok {
			log.Printf("[MES] Cannot plan route to station for process %d, default release", proc)
			rsp.OrderID = shared.NoneID
			return rsp
		}
		rsp.Action = ActionRelease
		rsp.NextStationID = next
		log.Printf("[MES] Routing tray %d to station %d", q.TrayID, next)
		return rsp
	}

	rsp.Action = ActionExecute
	e.graph.AdjustAllIncomingArcs(q.WorkstationID, plant.Inflate)
	log.Printf("[MES] Execute process %d at station %d", proc, q.WorkstationID)
	return rsp
}

// defaultResponse is the release skeleton every decision starts from
func (e *Engine) defaultResponse(q Query, info *tray.Info) Response {
	rsp := Response{
		Query:         q,
		OrderID:       shared.NoneID,
		Action:        ActionRelease,
		NextStationID: e.defaultNextStation(q.WorkstationID),
	}
	if info.ExecutingOrder {
		rsp.OrderID = info.CurrentOrderID
	}
	return rsp
}

// defaultNextStation is where a released tray goes when no better target
// exists: toward the default returning station, or to the first outgoing
// neighbour when already there
func (e *Engine) defaultNextStation(current uint32) uint32 {
	returning, ok := e.processes.DefaultReturningStation()
	if !ok {
		log.Printf("[MES] No order assigning station configured")
		return shared.NoneID
	}
	if current != returning {
		next, ok := e.nextStationToward(current, returning)
		if !ok {
			return shared.NoneID
		}
		return next
	}
	outgoing := e.graph.OutgoingNeighbors(current)
	if len(outgoing) == 0 {
		log.Printf("[GRAPH] No outgoing neighbors from station %d", current)
		return shared.NoneID
	}
	return outgoing[0]
}

// nextStationToward returns the second vertex on the shortest path from
// current to target, or target itself when the path is trivial
func (e *Engine) nextStationToward(current, target uint32) (uint32, bool) {
	path, _, err := e.graph.ShortestPath(current, target)
	if err != nil {
		log.Printf("[GRAPH] No path from station %d to station %d: %v", current, target, err)
		return 0, false
	}
	if len(path) >= 2 {
		return path[1], true
	}
	return path[0], true
}

// planRouteToProcess picks the capable station with the smallest expected
// travel time and returns the first hop toward it
func (e *Engine) planRouteToProcess(current uint32, proc uint8) (uint32, bool) {
	candidates := e.processes.StationsCapableOf(proc)
	if len(candidates) == 0 {
		log.Printf("[MES] Cannot find stations available for process %d", proc)
		return 0, false
	}

	bestLen := math.Inf(1)
	bestTarget := shared.NoneID
	for _, candidate := range candidates {
		_, length, err := e.graph.ShortestPath(current, candidate)
		if err != nil {
			continue // unreachable, skip
		}
		if length < bestLen {
			bestLen = length
			bestTarget = candidate
		}
	}
	if bestTarget == shared.NoneID {
		log.Printf("[MES] None of the candidate stations is reachable from station %d", current)
		return 0, false
	}
	return e.nextStationToward(current, bestTarget)
}

// observeQueues pushes the order queue depths to the metrics recorder.
// Callers hold the engine lock.
func (e *Engine) observeQueues() {
	e.metrics.ObserveOrderQueues(e.orders.WaitingCount(), e.orders.RunningCount(), e.orders.FinishedCount())
}
