// Package process maps stations to the processes they can perform and
// answers "what should this order do next".
package process

import (
	"errors"
	"log"

	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/product"
)

// Manager holds the station capability table, the order-assigning station
// list and the active product plan. Station enumeration follows
// registration order so route tie-breaking stays deterministic.
type Manager struct {
	prod *product.Product

	// Order-assigning stations are O(10); a linear scan is fine
	assigningStations []uint32

	capabilities map[uint32][]uint8
	stationOrder []uint32
}

// NewManager creates a process manager for one product plan
func NewManager(prod *product.Product) *Manager {
	return &Manager{
		prod:         prod,
		capabilities: make(map[uint32][]uint8),
	}
}

// RegisterStation declares a station's capabilities and whether arriving
// empty trays may pick up waiting orders there
func (m *Manager) RegisterStation(stationID uint32, processes []uint8, orderAssigning bool) {
	if _, seen := m.capabilities[stationID]; !seen {
		m.stationOrder = append(m.stationOrder, stationID)
	}
	m.capabilities[stationID] = append(m.capabilities[stationID], processes...)
	if orderAssigning {
		m.assigningStations = append(m.assigningStations, stationID)
	}
}

// Product returns the active product plan
func (m *Manager) Product() *product.Product {
	return m.prod
}

// IsOrderAssigningStation reports whether waiting orders may be handed to
// trays arriving at the station
func (m *Manager) IsOrderAssigningStation(stationID uint32) bool {
	for _, id := range m.assigningStations {
		if id == stationID {
			return true
		}
	}
	return false
}

// NextProcessFor returns the next process the order must execute, or false
// when no work remains. A plan/history mismatch is logged and reported as
// "no more work" so the dispatcher completes the order rather than wedging
// the tray.
func (m *Manager) NextProcessFor(o order.Order) (uint8, bool) {
	if len(o.ExecutedProcesses) == 0 {
		first, ok := m.prod.FirstProcess()
		if !ok {
			log.Printf("[PROCESS] Product %q has no processes", m.prod.Name)
			return 0, false
		}
		return first, true
	}
	remaining, err := m.prod.RemainingProcesses(o.ExecutedProcesses)
	if err != nil {
		if errors.Is(err, product.ErrProcessMismatch) {
			log.Printf("[PROCESS] Order %d history diverges from plan: %v", o.ID, err)
		}
		return 0, false
	}
	if len(remaining) == 0 {
		return 0, false
	}
	// Process sequences are strictly linear; the head is the only choice
	return remaining[0], true
}

// CanStationExecute reports whether the station advertises the process
func (m *Manager) CanStationExecute(proc uint8, stationID uint32) bool {
	caps, ok := m.capabilities[stationID]
	if !ok {
		log.Printf("[PROCESS] Station %d has no configured capabilities", stationID)
		return false
	}
	for _, c := range caps {
		if c == proc {
			return true
		}
	}
	return false
}

// StationsCapableOf lists the stations advertising the process, in
// registration order. Nil means no station can perform it.
func (m *Manager) StationsCapableOf(proc uint8) []uint32 {
	var stations []uint32
	for _, id := range m.stationOrder {
		for _, c := range m.capabilities[id] {
			if c == proc {
				stations = append(stations, id)
				break
			}
		}
	}
	if stations == nil {
		log.Printf("[PROCESS] No station can execute process %d", proc)
	}
	return stations
}

// FirstCapabilityOf returns the station's first configured process. The
// dispatcher relies on the one-process-per-station simplification when
// recording completed work.
func (m *Manager) FirstCapabilityOf(stationID uint32) (uint8, bool) {
	caps := m.capabilities[stationID]
	if len(caps) == 0 {
		return 0, false
	}
	return caps[0], true
}

// DefaultReturningStation is the first order-assigning station: the place
// idle trays are sent back to
func (m *Manager) DefaultReturningStation() (uint32, bool) {
	if len(m.assigningStations) == 0 {
		return 0, false
	}
	return m.assigningStations[0], true
}
