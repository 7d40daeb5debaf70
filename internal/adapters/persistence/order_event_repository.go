// Package persistence stores the append-only order event journal. The
// journal is an audit trail: it is written during a run and analysed
// offline, never read back to restore server state.
package persistence

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Event kinds recorded in the journal
const (
	EventOrderCreated     = "created"
	EventOrderAssigned    = "assigned"
	EventProcessCompleted = "process_completed"
	EventOrderFinished    = "finished"
)

// OrderEventModel is the GORM model for one journal row
type OrderEventModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	OrderID     uint32 `gorm:"index"`
	Event       string `gorm:"size:32;index"`
	TrayID      *uint32
	ProcessID   *uint8
	StationID   *uint32
	ProductType *uint8
	CreatedAt   time.Time
}

// TableName overrides the GORM table name
func (OrderEventModel) TableName() string {
	return "order_events"
}

// GormOrderEventRepository implements the dispatcher's Journal port on a
// GORM database. Writes happen on a background goroutine so a slow disk
// can never stall a dispatch decision; when the buffer is full events are
// dropped with a log line rather than blocking.
type GormOrderEventRepository struct {
	db     *gorm.DB
	events chan OrderEventModel
	wg     sync.WaitGroup
}

// NewGormOrderEventRepository migrates the journal table and starts the
// background writer
func NewGormOrderEventRepository(db *gorm.DB) (*GormOrderEventRepository, error) {
	if err := db.AutoMigrate(&OrderEventModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate order events: %w", err)
	}
	r := &GormOrderEventRepository{
		db:     db,
		events: make(chan OrderEventModel, 256),
	}
	r.wg.Add(1)
	go r.writeLoop()
	return r, nil
}

// Close flushes buffered events and stops the writer
func (r *GormOrderEventRepository) Close() {
	close(r.events)
	r.wg.Wait()
}

func (r *GormOrderEventRepository) writeLoop() {
	defer r.wg.Done()
	for ev := range r.events {
		if err := r.db.Create(&ev).Error; err != nil {
			log.Printf("[JOURNAL] Failed to persist %s event for order %d: %v", ev.Event, ev.OrderID, err)
		}
	}
}

func (r *GormOrderEventRepository) enqueue(ev OrderEventModel) {
	select {
	case r.events <- ev:
	default:
		log.Printf("[JOURNAL] Buffer full, dropping %s event for order %d", ev.Event, ev.OrderID)
	}
}

// OrderCreated records a freshly created order
func (r *GormOrderEventRepository) OrderCreated(orderID uint32, productType uint8) {
	pt := productType
	r.enqueue(OrderEventModel{OrderID: orderID, Event: EventOrderCreated, ProductType: &pt})
}

// OrderAssigned records an order being bound to a tray
func (r *GormOrderEventRepository) OrderAssigned(orderID, trayID uint32) {
	tid := trayID
	r.enqueue(OrderEventModel{OrderID: orderID, Event: EventOrderAssigned, TrayID: &tid})
}

// ProcessCompleted records one finished process step
func (r *GormOrderEventRepository) ProcessCompleted(orderID uint32, process uint8, stationID uint32) {
	p := process
	sid := stationID
	r.enqueue(OrderEventModel{OrderID: orderID, Event: EventProcessCompleted, ProcessID: &p, StationID: &sid})
}

// OrderFinished records order completion
func (r *GormOrderEventRepository) OrderFinished(orderID uint32) {
	r.enqueue(OrderEventModel{OrderID: orderID, Event: EventOrderFinished})
}

// EventsForOrder lists an order's journal rows in write order
func (r *GormOrderEventRepository) EventsForOrder(ctx context.Context, orderID uint32) ([]OrderEventModel, error) {
	var models []OrderEventModel
	result := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load events for order %d: %w", orderID, result.Error)
	}
	return models, nil
}
