// Package order owns the production order pool and the waiting, running
// and finished queues.
package order

import "github.com/reconfigmanus/mes-go/internal/domain/shared"

// Status is the run status of an order
type Status int

const (
	StatusWait Status = iota
	StatusExecuting
	StatusFinished
	StatusError
	StatusDelete
)

func (s Status) String() string {
	switch s {
	case StatusWait:
		return "WAIT"
	case StatusExecuting:
		return "EXECUTING"
	case StatusFinished:
		return "FINISHED"
	case StatusError:
		return "ERROR"
	case StatusDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Order is a production request for one unit of one product type.
// TrayID is shared.NoneID while the order is unassigned.
type Order struct {
	ID                uint32
	ProductType       uint8
	TrayID            uint32
	Status            Status
	ExecutedProcesses []uint8
}

// Assigned reports whether the order is currently bound to a tray
func (o Order) Assigned() bool {
	return o.TrayID != shared.NoneID
}
