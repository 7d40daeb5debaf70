// Package plant holds the labelled directed graph of workstations and
// transfer links that the dispatcher routes trays over.
package plant

import (
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
)

// Station is a vertex of the production graph. The identifier is immutable
// after construction; the service-time distribution may be replaced.
type Station struct {
	ID             uint32
	Name           string
	BufferCapacity uint8
	ServiceTime    timedist.Distribution
}

// Transfer is a directed arc between two stations. Arcs are unique per
// ordered (tail, head) pair.
type Transfer struct {
	Tail         uint32
	Head         uint32
	TransferTime timedist.Distribution
}
