// Package tray tracks the carriers circulating through the plant.
package tray

import "github.com/reconfigmanus/mes-go/internal/domain/shared"

// Info is the mutable per-tray state. CurrentOrderID is shared.NoneID
// while ExecutingOrder is false.
type Info struct {
	TrayID         uint32
	ExecutingOrder bool
	CurrentOrderID uint32
}

// Reset returns the tray to its idle state
func (i *Info) Reset() {
	i.ExecutingOrder = false
	i.CurrentOrderID = shared.NoneID
}

// Registry is a sparse tray-id map. Entries are created lazily on first
// sight and persist for the server's lifetime.
type Registry struct {
	infos map[uint32]*Info
}

// NewRegistry creates an empty tray registry
func NewRegistry() *Registry {
	return &Registry{infos: make(map[uint32]*Info)}
}

// GetOrCreate returns the tray's state, creating an idle entry on first
// sight. The returned pointer is the live record.
func (r *Registry) GetOrCreate(trayID uint32) *Info {
	if info, ok := r.infos[trayID]; ok {
		return info
	}
	info := &Info{TrayID: trayID, ExecutingOrder: false, CurrentOrderID: shared.NoneID}
	r.infos[trayID] = info
	return info
}

// Len returns the number of trays ever seen
func (r *Registry) Len() int {
	return len(r.infos)
}
