package dispatch

// Journal receives order lifecycle events for the append-only audit trail.
// Implementations must never fail the dispatcher; persistence problems are
// theirs to log and swallow.
type Journal interface {
	OrderCreated(orderID uint32, productType uint8)
	OrderAssigned(orderID, trayID uint32)
	ProcessCompleted(orderID uint32, process uint8, stationID uint32)
	OrderFinished(orderID uint32)
}

// DecisionRecorder receives dispatch decision metrics
type DecisionRecorder interface {
	RecordDecision(query string, action Action)
	ObserveOrderQueues(waiting, running, finished int)
}

// NopJournal discards all events
type NopJournal struct{}

func (NopJournal) OrderCreated(uint32, uint8)             {}
func (NopJournal) OrderAssigned(uint32, uint32)           {}
func (NopJournal) ProcessCompleted(uint32, uint8, uint32) {}
func (NopJournal) OrderFinished(uint32)                   {}

// NopRecorder discards all metrics
type NopRecorder struct{}

func (NopRecorder) RecordDecision(string, Action)   {}
func (NopRecorder) ObserveOrderQueues(int, int, int) {}
