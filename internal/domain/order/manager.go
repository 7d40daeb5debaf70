package order

import (
	"log"

	"github.com/reconfigmanus/mes-go/internal/domain/shared"
)

// Manager tracks every order ever created. Ids are monotonic from 1 and
// never reused. The waiting queue is FIFO; running and finished preserve
// insertion order. Manager is not safe for concurrent use on its own; the
// dispatch engine serialises access.
type Manager struct {
	nextID   uint32
	pool     map[uint32]*Order
	waiting  []uint32
	running  []uint32
	finished []uint32
}

// NewManager creates an empty order manager
func NewManager() *Manager {
	return &Manager{pool: make(map[uint32]*Order)}
}

// CreateOrder allocates a fresh order in WAIT status and queues it
func (m *Manager) CreateOrder(productType uint8) uint32 {
	m.nextID++
	id := m.nextID
	m.pool[id] = &Order{
		ID:          id,
		ProductType: productType,
		TrayID:      shared.NoneID,
		Status:      StatusWait,
	}
	m.waiting = append(m.waiting, id)
	return id
}

// Order returns a read-only snapshot of the order with the given id
func (m *Manager) Order(id uint32) (Order, bool) {
	o, ok := m.pool[id]
	if !ok {
		return Order{}, false
	}
	snapshot := *o
	snapshot.ExecutedProcesses = append([]uint8(nil), o.ExecutedProcesses...)
	return snapshot, true
}

// WaitingCount returns the number of orders still waiting for a tray
func (m *Manager) WaitingCount() int {
	return len(m.waiting)
}

// RunningCount returns the number of orders currently executing
func (m *Manager) RunningCount() int {
	return len(m.running)
}

// FinishedCount returns the number of completed orders
func (m *Manager) FinishedCount() int {
	return len(m.finished)
}

// IsDone reports whether the order has reached FINISHED
func (m *Manager) IsDone(id uint32) bool {
	o, ok := m.pool[id]
	if !ok {
		log.Printf("[ORDER] IsDone: order %d not found", id)
		return false
	}
	return o.Status == StatusFinished
}

// TryAssignToTray pops the front of the waiting queue and binds it to the
// tray. Returns false without modifying state when nothing is waiting.
func (m *Manager) TryAssignToTray(trayID uint32) (uint32, bool) {
	if len(m.waiting) == 0 {
		log.Printf("[ORDER] No order to be assigned")
		return 0, false
	}
	id := m.waiting[0]
	o, ok := m.pool[id]
	if !ok {
		// Queue and pool out of sync would be a bug; leave state alone
		log.Printf("[ORDER] Waiting order %d missing from pool", id)
		return 0, false
	}
	m.waiting = m.waiting[1:]
	m.running = append(m.running, id)
	o.TrayID = trayID
	o.Status = StatusExecuting
	log.Printf("[ORDER] Order %d assigned to tray %d", id, trayID)
	return id, true
}

// RecordProcessSuccess appends a completed process step to the order
func (m *Manager) RecordProcessSuccess(orderID uint32, process uint8) {
	o, ok := m.pool[orderID]
	if !ok {
		log.Printf("[ORDER] RecordProcessSuccess: order %d not found", orderID)
		return
	}
	o.ExecutedProcesses = append(o.ExecutedProcesses, process)
}

// Finish marks the order FINISHED and moves it to the finished list
func (m *Manager) Finish(orderID uint32) {
	o, ok := m.pool[orderID]
	if !ok {
		log.Printf("[ORDER] Finish: order %d not found", orderID)
		return
	}
	o.Status = StatusFinished
	for i, id := range m.running {
		if id == orderID {
			m.running = append(m.running[:i], m.running[i+1:]...)
			break
		}
	}
	m.finished = append(m.finished, orderID)
	log.Printf("[ORDER] Order %d marked as FINISHED", orderID)
}
