package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/process"
	"github.com/reconfigmanus/mes-go/internal/domain/product"
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
)

// The production documents are fixed-format JSON files. They are parsed
// into tagged document structs here and handed to the domain constructors;
// any malformed document is a fatal startup error.

type distributionDoc struct {
	Type       string    `json:"type"`
	Parameters []float64 `json:"parameters"`
}

type vertexDoc struct {
	ID                      uint32          `json:"id"`
	Name                    string          `json:"name"`
	BufferCapacity          uint32          `json:"buffer_capacity"`
	ServiceTimeDistribution distributionDoc `json:"service_time_distribution"`
}

type arcDoc struct {
	Tail                     uint32          `json:"tail"`
	Head                     uint32          `json:"head"`
	TransferTimeDistribution distributionDoc `json:"transfer_time_distribution"`
}

type graphDoc struct {
	Vertices []vertexDoc `json:"vertices"`
	Arcs     []arcDoc    `json:"arcs"`
}

type capabilityDoc struct {
	ID                      uint32  `json:"id"`
	ProcessCapability       *uint32 `json:"process_capability,omitempty"`
	IsOrderAssigningStation bool    `json:"is_order_assigning_station"`
}

type capabilitiesDoc struct {
	Stations []capabilityDoc `json:"stations"`
}

type processDoc struct {
	ProcessID uint8 `json:"process_id"`
}

type productDoc struct {
	ProductType uint8        `json:"product_type"`
	ProductName string       `json:"product_name"`
	Processes   []processDoc `json:"processes"`
}

type productsDoc struct {
	Products []productDoc `json:"products"`
}

func readDocument(path string, doc interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return nil
}

func parseDistribution(doc distributionDoc) (timedist.Distribution, error) {
	return timedist.New(timedist.Kind(doc.Type), doc.Parameters)
}

// LoadGraph builds the station graph from the graph document
func LoadGraph(path string) (*plant.Graph, error) {
	var doc graphDoc
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Vertices) == 0 {
		return nil, fmt.Errorf("graph document %s declares no stations", path)
	}

	g := plant.NewGraph()
	for _, v := range doc.Vertices {
		dist, err := parseDistribution(v.ServiceTimeDistribution)
		if err != nil {
			return nil, fmt.Errorf("station %d service time: %w", v.ID, err)
		}
		if v.BufferCapacity > 255 {
			return nil, fmt.Errorf("station %d buffer capacity %d out of range", v.ID, v.BufferCapacity)
		}
		station := plant.Station{
			ID:             v.ID,
			Name:           v.Name,
			BufferCapacity: uint8(v.BufferCapacity),
			ServiceTime:    dist,
		}
		if err := g.AddStation(station); err != nil {
			return nil, fmt.Errorf("station %d: %w", v.ID, err)
		}
	}
	for _, a := range doc.Arcs {
		dist, err := parseDistribution(a.TransferTimeDistribution)
		if err != nil {
			return nil, fmt.Errorf("arc %d->%d transfer time: %w", a.Tail, a.Head, err)
		}
		transfer := plant.Transfer{
			Tail:         a.Tail,
			Head:         a.Head,
			TransferTime: dist,
		}
		if err := g.AddTransfer(transfer); err != nil {
			return nil, fmt.Errorf("arc %d->%d: %w", a.Tail, a.Head, err)
		}
	}
	return g, nil
}

// LoadCapabilities builds the process manager from the capability document.
// At least one station must be order-assigning, otherwise no tray could
// ever receive work.
func LoadCapabilities(path string, prod *product.Product) (*process.Manager, error) {
	var doc capabilitiesDoc
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	m := process.NewManager(prod)
	assigning := 0
	for _, s := range doc.Stations {
		var processes []uint8
		if s.ProcessCapability != nil {
			if *s.ProcessCapability > 255 {
				return nil, fmt.Errorf("station %d process capability %d out of range", s.ID, *s.ProcessCapability)
			}
			processes = []uint8{uint8(*s.ProcessCapability)}
		}
		m.RegisterStation(s.ID, processes, s.IsOrderAssigningStation)
		if s.IsOrderAssigningStation {
			assigning++
		}
	}
	if assigning == 0 {
		return nil, fmt.Errorf("capability document %s declares no order-assigning station", path)
	}
	return m, nil
}

// LoadProduct loads the plan for the configured product type from the
// products document. Other product records are ignored.
func LoadProduct(path string, productType uint8) (*product.Product, error) {
	var doc productsDoc
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	for _, p := range doc.Products {
		if p.ProductType != productType {
			continue
		}
		if len(p.Processes) == 0 {
			return nil, fmt.Errorf("product %d has an empty process plan", productType)
		}
		processes := make([]uint8, len(p.Processes))
		for i, step := range p.Processes {
			processes[i] = step.ProcessID
		}
		return product.New(p.ProductType, p.ProductName, processes), nil
	}
	return nil, fmt.Errorf("product type %d not found in %s", productType, path)
}
