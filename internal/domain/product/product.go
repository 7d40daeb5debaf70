// Package product describes the process plan of a product type: a strictly
// linear sequence of process identifiers.
package product

import "errors"

// ErrProcessMismatch indicates that an order's executed processes are not a
// prefix of the plan. This is a bug indicator, not a normal result.
var ErrProcessMismatch = errors.New("executed processes do not match product plan prefix")

// Product is the process plan for one product type
type Product struct {
	Type      uint8
	Name      string
	Processes []uint8
}

// New creates a product plan
func New(productType uint8, name string, processes []uint8) *Product {
	steps := make([]uint8, len(processes))
	copy(steps, processes)
	return &Product{Type: productType, Name: name, Processes: steps}
}

// FirstProcess returns the first step of the plan
func (p *Product) FirstProcess() (uint8, bool) {
	if len(p.Processes) == 0 {
		return 0, false
	}
	return p.Processes[0], true
}

// LastProcess returns the final step of the plan
func (p *Product) LastProcess() (uint8, bool) {
	if len(p.Processes) == 0 {
		return 0, false
	}
	return p.Processes[len(p.Processes)-1], true
}

// RemainingProcesses returns the steps still to execute given the processes
// an order has already completed. The executed list must be an
// element-by-element prefix of the plan, otherwise ErrProcessMismatch is
// returned. A nil result with nil error means the plan is complete.
func (p *Product) RemainingProcesses(executed []uint8) ([]uint8, error) {
	if len(executed) > len(p.Processes) {
		return nil, ErrProcessMismatch
	}
	for i, step := range executed {
		if step != p.Processes[i] {
			return nil, ErrProcessMismatch
		}
	}
	if len(executed) == len(p.Processes) {
		return nil, nil
	}
	remaining := make([]uint8, len(p.Processes)-len(executed))
	copy(remaining, p.Processes[len(executed):])
	return remaining, nil
}
