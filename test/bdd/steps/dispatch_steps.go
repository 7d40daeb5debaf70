package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/process"
	"github.com/reconfigmanus/mes-go/internal/domain/product"
	"github.com/reconfigmanus/mes-go/internal/domain/shared"
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
	"github.com/reconfigmanus/mes-go/internal/domain/tray"
)

type stationReg struct {
	id         uint32
	capability *uint8
	assigning  bool
}

type dispatchContext struct {
	graph         *plant.Graph
	prod          *product.Product
	registrations []stationReg
	initialOrders int

	engine *dispatch.Engine
	orders *order.Manager
	last   dispatch.Response
}

func (dc *dispatchContext) reset() {
	dc.graph = nil
	dc.prod = nil
	dc.registrations = nil
	dc.initialOrders = 0
	dc.engine = nil
	dc.orders = nil
	dc.last = dispatch.Response{}
}

// parseDistribution reads forms like "constant 0" and "normal 5 1"
func parseDistribution(form string) (timedist.Distribution, error) {
	fields := strings.Fields(form)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty distribution")
	}
	params := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad distribution parameter %q: %w", f, err)
		}
		params = append(params, v)
	}
	return timedist.New(timedist.Kind(fields[0]), params)
}

// ensureEngine builds the engine on first use, after all setup steps ran
func (dc *dispatchContext) ensureEngine() error {
	if dc.engine != nil {
		return nil
	}
	if dc.graph == nil || dc.prod == nil {
		return fmt.Errorf("plant or product not configured")
	}

	processes := process.NewManager(dc.prod)
	for _, reg := range dc.registrations {
		var caps []uint8
		if reg.capability != nil {
			caps = []uint8{*reg.capability}
		}
		processes.RegisterStation(reg.id, caps, reg.assigning)
	}

	dc.orders = order.NewManager()
	dc.engine = dispatch.NewEngine(dc.graph, dc.orders, processes, tray.NewRegistry(), nil, nil)
	dc.engine.CreateOrderBatch(dc.initialOrders)
	return nil
}

// Setup steps

func (dc *dispatchContext) aPlantWithStations(table *godog.Table) error {
	dc.graph = plant.NewGraph()
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header
		}
		id, err := strconv.ParseUint(row.Cells[0].Value, 10, 32)
		if err != nil {
			return err
		}
		dist, err := parseDistribution(row.Cells[2].Value)
		if err != nil {
			return err
		}
		st := plant.Station{
			ID:          uint32(id),
			Name:        row.Cells[1].Value,
			ServiceTime: dist,
		}
		if err := dc.graph.AddStation(st); err != nil {
			return err
		}
	}
	return nil
}

func (dc *dispatchContext) transfersBetweenStations(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		tail, err := strconv.ParseUint(row.Cells[0].Value, 10, 32)
		if err != nil {
			return err
		}
		head, err := strconv.ParseUint(row.Cells[1].Value, 10, 32)
		if err != nil {
			return err
		}
		dist, err := parseDistribution(row.Cells[2].Value)
		if err != nil {
			return err
		}
		t := plant.Transfer{Tail: uint32(tail), Head: uint32(head), TransferTime: dist}
		if err := dc.graph.AddTransfer(t); err != nil {
			return err
		}
	}
	return nil
}

func (dc *dispatchContext) aProductWithPlan(name string, productType int, plan string) error {
	var processes []uint8
	for _, f := range strings.Split(plan, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return err
		}
		processes = append(processes, uint8(v))
	}
	dc.prod = product.New(uint8(productType), name, processes)
	return nil
}

func (dc *dispatchContext) stationCapabilities(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		id, err := strconv.ParseUint(row.Cells[0].Value, 10, 32)
		if err != nil {
			return err
		}
		reg := stationReg{
			id:        uint32(id),
			assigning: row.Cells[2].Value == "yes",
		}
		if capability := strings.TrimSpace(row.Cells[1].Value); capability != "" {
			v, err := strconv.ParseUint(capability, 10, 8)
			if err != nil {
				return err
			}
			p := uint8(v)
			reg.capability = &p
		}
		dc.registrations = append(dc.registrations, reg)
	}
	return nil
}

func (dc *dispatchContext) nWaitingOrders(n int) error {
	dc.initialOrders = n
	return nil
}

// onlyDetachedStationCanExecute moves the given capability to a fresh
// station with no arcs, leaving the process unreachable from the plant
func (dc *dispatchContext) onlyDetachedStationCanExecute(stationID, proc int) error {
	st := plant.Station{
		ID:          uint32(stationID),
		Name:        fmt.Sprintf("detached-%d", stationID),
		ServiceTime: timedist.Constant{},
	}
	if err := dc.graph.AddStation(st); err != nil {
		return err
	}
	p := uint8(proc)
	for i := range dc.registrations {
		if r := dc.registrations[i].capability; r != nil && *r == p {
			dc.registrations[i].capability = nil
		}
	}
	dc.registrations = append(dc.registrations, stationReg{id: uint32(stationID), capability: &p})
	return nil
}

// Query steps

func (dc *dispatchContext) trayArrivesAtStation(trayID, stationID int) error {
	if err := dc.ensureEngine(); err != nil {
		return err
	}
	dc.last = dc.engine.HandleActionQuery(dispatch.Query{
		WorkstationID: uint32(stationID),
		TrayID:        uint32(trayID),
	})
	return nil
}

func (dc *dispatchContext) trayReportsCompletionAtStation(trayID, stationID int) error {
	if err := dc.ensureEngine(); err != nil {
		return err
	}
	dc.last = dc.engine.HandleActionDoneQuery(dispatch.Query{
		WorkstationID: uint32(stationID),
		TrayID:        uint32(trayID),
	})
	return nil
}

// Assertion steps

func (dc *dispatchContext) trayReleasedToward(stationID int) error {
	if dc.last.Action != dispatch.ActionRelease {
		return fmt.Errorf("expected RELEASE, got action %d", dc.last.Action)
	}
	if dc.last.NextStationID != uint32(stationID) {
		return fmt.Errorf("expected next station %d, got %d", stationID, dc.last.NextStationID)
	}
	return nil
}

func (dc *dispatchContext) trayToldToExecute() error {
	if dc.last.Action != dispatch.ActionExecute {
		return fmt.Errorf("expected EXECUTE, got action %d", dc.last.Action)
	}
	return nil
}

func (dc *dispatchContext) responseCarriesOrder(orderID int) error {
	if dc.last.OrderID != uint32(orderID) {
		return fmt.Errorf("expected order %d, got %d", orderID, dc.last.OrderID)
	}
	return nil
}

func (dc *dispatchContext) responseCarriesNoOrder() error {
	if dc.last.OrderID != shared.NoneID {
		return fmt.Errorf("expected no order, got %d", dc.last.OrderID)
	}
	return nil
}

func (dc *dispatchContext) nOrdersAreWaiting(n int) error {
	if got := dc.orders.WaitingCount(); got != n {
		return fmt.Errorf("expected %d waiting orders, got %d", n, got)
	}
	return nil
}

func (dc *dispatchContext) orderHasExecutedProcesses(orderID int, list string) error {
	o, ok := dc.orders.Order(uint32(orderID))
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	var want []uint8
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return err
		}
		want = append(want, uint8(v))
	}
	if len(o.ExecutedProcesses) != len(want) {
		return fmt.Errorf("expected executed %v, got %v", want, o.ExecutedProcesses)
	}
	for i := range want {
		if o.ExecutedProcesses[i] != want[i] {
			return fmt.Errorf("expected executed %v, got %v", want, o.ExecutedProcesses)
		}
	}
	return nil
}

func (dc *dispatchContext) orderIsFinished(orderID int) error {
	if !dc.orders.IsDone(uint32(orderID)) {
		return fmt.Errorf("order %d is not finished", orderID)
	}
	return nil
}

func (dc *dispatchContext) meanTransferTimeIs(tail, head int, want string) error {
	dist, ok := dc.graph.ArcDist(uint32(tail), uint32(head))
	if !ok {
		return fmt.Errorf("no arc %d->%d", tail, head)
	}
	wantMu, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return err
	}
	got := dist.Expected()
	if diff := got - wantMu; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("expected mean %v on arc %d->%d, got %v", wantMu, tail, head, got)
	}
	return nil
}

// RegisterDispatchSteps wires the tray dispatch steps into the suite
func RegisterDispatchSteps(sc *godog.ScenarioContext) {
	dc := &dispatchContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dc.reset()
		return ctx, nil
	})

	sc.Step(`^a plant with stations:$`, dc.aPlantWithStations)
	sc.Step(`^transfers between stations:$`, dc.transfersBetweenStations)
	sc.Step(`^a product "([^"]*)" of type (\d+) with process plan "([^"]*)"$`, dc.aProductWithPlan)
	sc.Step(`^station capabilities:$`, dc.stationCapabilities)
	sc.Step(`^(\d+) waiting orders?$`, dc.nWaitingOrders)
	sc.Step(`^only a detached station (\d+) can execute process (\d+)$`, dc.onlyDetachedStationCanExecute)

	sc.Step(`^tray (\d+) arrives at station (\d+)$`, dc.trayArrivesAtStation)
	sc.Step(`^tray (\d+) reports completion at station (\d+)$`, dc.trayReportsCompletionAtStation)

	sc.Step(`^the tray is released toward station (\d+)$`, dc.trayReleasedToward)
	sc.Step(`^the tray is told to execute$`, dc.trayToldToExecute)
	sc.Step(`^the response carries order (\d+)$`, dc.responseCarriesOrder)
	sc.Step(`^the response carries no order$`, dc.responseCarriesNoOrder)
	sc.Step(`^(\d+) orders are waiting$`, dc.nOrdersAreWaiting)
	sc.Step(`^order (\d+) has executed processes "([^"]*)"$`, dc.orderHasExecutedProcesses)
	sc.Step(`^order (\d+) is finished$`, dc.orderIsFinished)
	sc.Step(`^the mean transfer time from station (\d+) to station (\d+) is ([0-9.]+)$`, dc.meanTransferTimeIs)
}
