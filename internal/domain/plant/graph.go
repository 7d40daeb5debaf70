package plant

import (
	"container/heap"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
)

// Adjustment signs for the congestion reweighting of incoming arcs.
// Every Inflate must eventually be paired with exactly one Deflate.
const (
	Inflate = 1
	Deflate = -1
)

var (
	// ErrUnknownStation is returned when a vertex id is not in the graph
	ErrUnknownStation = errors.New("unknown station")

	// ErrUnknownArc is returned when no arc exists for an ordered pair
	ErrUnknownArc = errors.New("unknown arc")

	// ErrUnreachable is returned when no path exists between two stations
	ErrUnreachable = errors.New("no path between stations")
)

type arcKey struct {
	tail uint32
	head uint32
}

// Graph is the multi-indexed station graph: O(1) vertex and arc lookup,
// per-vertex ordered neighbour lists, and expected-time shortest paths.
// Neighbour and vertex enumeration follow construction order, which keeps
// shortest-path tie-breaking deterministic for a fixed configuration.
//
// Graph is not safe for concurrent use; the dispatch engine serialises
// access behind its own lock.
type Graph struct {
	stations map[uint32]*Station
	arcs     map[arcKey]*Transfer
	order    []uint32
	outgoing map[uint32][]uint32
	incoming map[uint32][]uint32
}

// NewGraph creates an empty station graph
func NewGraph() *Graph {
	return &Graph{
		stations: make(map[uint32]*Station),
		arcs:     make(map[arcKey]*Transfer),
		outgoing: make(map[uint32][]uint32),
		incoming: make(map[uint32][]uint32),
	}
}

// AddStation inserts a vertex. Duplicate ids are a configuration error.
func (g *Graph) AddStation(st Station) error {
	if _, ok := g.stations[st.ID]; ok {
		return fmt.Errorf("duplicate station id %d", st.ID)
	}
	s := st
	g.stations[st.ID] = &s
	g.order = append(g.order, st.ID)
	return nil
}

// AddTransfer inserts an arc. Both endpoints must already exist and the
// ordered pair must be unique.
func (g *Graph) AddTransfer(t Transfer) error {
	if _, ok := g.stations[t.Tail]; !ok {
		return fmt.Errorf("arc (%d,%d): %w %d", t.Tail, t.Head, ErrUnknownStation, t.Tail)
	}
	if _, ok := g.stations[t.Head]; !ok {
		return fmt.Errorf("arc (%d,%d): %w %d", t.Tail, t.Head, ErrUnknownStation, t.Head)
	}
	key := arcKey{tail: t.Tail, head: t.Head}
	if _, ok := g.arcs[key]; ok {
		return fmt.Errorf("duplicate arc (%d,%d)", t.Tail, t.Head)
	}
	a := t
	g.arcs[key] = &a
	g.outgoing[t.Tail] = append(g.outgoing[t.Tail], t.Head)
	g.incoming[t.Head] = append(g.incoming[t.Head], t.Tail)
	return nil
}

// Station returns a snapshot of the vertex with the given id
func (g *Graph) Station(id uint32) (Station, bool) {
	st, ok := g.stations[id]
	if !ok {
		return Station{}, false
	}
	return *st, true
}

// Arc returns a snapshot of the arc for the ordered pair
func (g *Graph) Arc(tail, head uint32) (Transfer, bool) {
	a, ok := g.arcs[arcKey{tail: tail, head: head}]
	if !ok {
		return Transfer{}, false
	}
	return *a, true
}

// StationIDs lists all vertex ids in construction order
func (g *Graph) StationIDs() []uint32 {
	ids := make([]uint32, len(g.order))
	copy(ids, g.order)
	return ids
}

// VertexDist returns the service-time distribution of a station
func (g *Graph) VertexDist(id uint32) (timedist.Distribution, bool) {
	st, ok := g.stations[id]
	if !ok {
		return nil, false
	}
	return st.ServiceTime, true
}

// SetVertexDist replaces the service-time distribution of a station
func (g *Graph) SetVertexDist(id uint32, dist timedist.Distribution) error {
	st, ok := g.stations[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownStation, id)
	}
	st.ServiceTime = dist
	return nil
}

// ArcDist returns the transfer-time distribution of an arc
func (g *Graph) ArcDist(tail, head uint32) (timedist.Distribution, bool) {
	a, ok := g.arcs[arcKey{tail: tail, head: head}]
	if !ok {
		return nil, false
	}
	return a.TransferTime, true
}

// SetArcDist replaces the transfer-time distribution of an arc
func (g *Graph) SetArcDist(tail, head uint32, dist timedist.Distribution) error {
	a, ok := g.arcs[arcKey{tail: tail, head: head}]
	if !ok {
		return fmt.Errorf("arc (%d,%d): %w", tail, head, ErrUnknownArc)
	}
	a.TransferTime = dist
	return nil
}

// OutgoingNeighbors lists the heads of all arcs leaving the station, in
// arc construction order
func (g *Graph) OutgoingNeighbors(id uint32) []uint32 {
	return copyIDs(g.outgoing[id])
}

// IncomingNeighbors lists the tails of all arcs entering the station, in
// arc construction order
func (g *Graph) IncomingNeighbors(id uint32) []uint32 {
	return copyIDs(g.incoming[id])
}

// AdjustArcByVertex folds a station's service time into an arc's transfer
// time: with arc N(mua, sigmaa) and vertex N(muv, sigmav) the arc becomes
// N(mua + sign*muv, sqrt(sigmaa^2 + sign*sigmav^2)). The signed variance
// term is what lets a paired Inflate/Deflate restore the original arc
// exactly. Only normal distributions participate; anything else is logged
// and left untouched.
func (g *Graph) AdjustArcByVertex(tail, head, vertexID uint32, sign int) {
	vtx, ok := g.stations[vertexID]
	if !ok {
		log.Printf("[GRAPH] Adjust failed: %v %d", ErrUnknownStation, vertexID)
		return
	}
	a, ok := g.arcs[arcKey{tail: tail, head: head}]
	if !ok {
		log.Printf("[GRAPH] Adjust failed: no arc (%d,%d)", tail, head)
		return
	}

	arcDist, arcOK := a.TransferTime.(timedist.Normal)
	vtxDist, vtxOK := vtx.ServiceTime.(timedist.Normal)
	if !arcOK || !vtxOK {
		log.Printf("[GRAPH] Arc (%d,%d) or station %d not normal, adjustment skipped", tail, head, vertexID)
		return
	}

	s := float64(sign)
	a.TransferTime = timedist.Normal{
		Mu:    arcDist.Mu + s*vtxDist.Mu,
		Sigma: math.Sqrt(arcDist.Sigma*arcDist.Sigma + s*vtxDist.Sigma*vtxDist.Sigma),
	}
}

// AdjustAllIncomingArcs applies AdjustArcByVertex to every arc entering
// the station. This is the congestion signal raised when a tray commits to
// executing a process at the station, and lowered when it finishes.
func (g *Graph) AdjustAllIncomingArcs(vertexID uint32, sign int) {
	if _, ok := g.stations[vertexID]; !ok {
		log.Printf("[GRAPH] Adjust failed: %v %d", ErrUnknownStation, vertexID)
		return
	}
	incoming := g.incoming[vertexID]
	if len(incoming) == 0 {
		log.Printf("[GRAPH] Station %d has no incoming arcs, nothing to adjust", vertexID)
		return
	}
	for _, tail := range incoming {
		g.AdjustArcByVertex(tail, vertexID, vertexID, sign)
	}
}

// ShortestPath runs Dijkstra from src to dst over the expected values of
// the arc transfer-time distributions. src == dst yields ([src], 0).
// Returns ErrUnreachable when dst cannot be reached.
func (g *Graph) ShortestPath(src, dst uint32) ([]uint32, float64, error) {
	if _, ok := g.stations[src]; !ok {
		return nil, 0, fmt.Errorf("%w %d", ErrUnknownStation, src)
	}
	if _, ok := g.stations[dst]; !ok {
		return nil, 0, fmt.Errorf("%w %d", ErrUnknownStation, dst)
	}
	if src == dst {
		return []uint32{src}, 0, nil
	}

	dist := map[uint32]float64{src: 0}
	prev := make(map[uint32]uint32)
	visited := make(map[uint32]bool)

	pq := &vertexQueue{}
	heap.Init(pq)
	heap.Push(pq, &queuedVertex{id: src, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*queuedVertex)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		if cur.id == dst {
			break
		}
		for _, next := range g.outgoing[cur.id] {
			if visited[next] {
				continue
			}
			arc := g.arcs[arcKey{tail: cur.id, head: next}]
			candidate := cur.dist + arc.TransferTime.Expected()
			if best, seen := dist[next]; !seen || candidate < best {
				dist[next] = candidate
				prev[next] = cur.id
				heap.Push(pq, &queuedVertex{id: next, dist: candidate})
			}
		}
	}

	total, ok := dist[dst]
	if !ok || !visited[dst] {
		return nil, 0, fmt.Errorf("from %d to %d: %w", src, dst, ErrUnreachable)
	}

	var path []uint32
	for v := dst; ; {
		path = append(path, v)
		if v == src {
			break
		}
		v = prev[v]
	}
	reverse(path)
	return path, total, nil
}

type queuedVertex struct {
	id   uint32
	dist float64
	seq  int
}

// vertexQueue is a min-heap on distance; insertion sequence breaks ties so
// results stay deterministic for a fixed graph construction
type vertexQueue struct {
	items []*queuedVertex
	next  int
}

func (q *vertexQueue) Len() int { return len(q.items) }

func (q *vertexQueue) Less(i, j int) bool {
	if q.items[i].dist != q.items[j].dist {
		return q.items[i].dist < q.items[j].dist
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *vertexQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *vertexQueue) Push(x any) {
	item := x.(*queuedVertex)
	item.seq = q.next
	q.next++
	q.items = append(q.items, item)
}

func (q *vertexQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

func copyIDs(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	copy(out, ids)
	return out
}

func reverse(ids []uint32) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
