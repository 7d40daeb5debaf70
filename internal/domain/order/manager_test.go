package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconfigmanus/mes-go/internal/domain/order"
	"github.com/reconfigmanus/mes-go/internal/domain/shared"
)

func TestCreateOrderDefaults(t *testing.T) {
	m := order.NewManager()

	id := m.CreateOrder(4)
	assert.Equal(t, uint32(1), id)

	o, ok := m.Order(id)
	require.True(t, ok)
	assert.Equal(t, uint8(4), o.ProductType)
	assert.Equal(t, order.StatusWait, o.Status)
	assert.Equal(t, shared.NoneID, o.TrayID)
	assert.False(t, o.Assigned())
	assert.Empty(t, o.ExecutedProcesses)
}

func TestOrderIDsMonotonic(t *testing.T) {
	m := order.NewManager()

	var prev uint32
	for i := 0; i < 50; i++ {
		id := m.CreateOrder(1)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestAssignIsFIFO(t *testing.T) {
	m := order.NewManager()
	first := m.CreateOrder(1)
	second := m.CreateOrder(1)

	id, ok := m.TryAssignToTray(7)
	require.True(t, ok)
	assert.Equal(t, first, id)

	id, ok = m.TryAssignToTray(8)
	require.True(t, ok)
	assert.Equal(t, second, id)

	o, _ := m.Order(first)
	assert.Equal(t, order.StatusExecuting, o.Status)
	assert.Equal(t, uint32(7), o.TrayID)
}

func TestAssignOnEmptyQueueLeavesStateAlone(t *testing.T) {
	m := order.NewManager()

	_, ok := m.TryAssignToTray(7)
	assert.False(t, ok)
	assert.Zero(t, m.WaitingCount())
	assert.Zero(t, m.RunningCount())
}

func TestQueuesPartitionPool(t *testing.T) {
	m := order.NewManager()
	for i := 0; i < 5; i++ {
		m.CreateOrder(1)
	}
	assigned, _ := m.TryAssignToTray(7)
	other, _ := m.TryAssignToTray(8)
	m.Finish(other)

	assert.Equal(t, 3, m.WaitingCount())
	assert.Equal(t, 1, m.RunningCount())
	assert.Equal(t, 1, m.FinishedCount())
	assert.Equal(t, 5, m.WaitingCount()+m.RunningCount()+m.FinishedCount())

	o, _ := m.Order(assigned)
	assert.Equal(t, order.StatusExecuting, o.Status)
	o, _ = m.Order(other)
	assert.Equal(t, order.StatusFinished, o.Status)
}

func TestRecordProcessSuccess(t *testing.T) {
	m := order.NewManager()
	id := m.CreateOrder(1)
	m.TryAssignToTray(7)

	m.RecordProcessSuccess(id, 3)
	m.RecordProcessSuccess(id, 5)

	o, _ := m.Order(id)
	assert.Equal(t, []uint8{3, 5}, o.ExecutedProcesses)
}

func TestOrderSnapshotIsDetached(t *testing.T) {
	m := order.NewManager()
	id := m.CreateOrder(1)
	m.RecordProcessSuccess(id, 3)

	snapshot, _ := m.Order(id)
	snapshot.ExecutedProcesses[0] = 99

	fresh, _ := m.Order(id)
	assert.Equal(t, []uint8{3}, fresh.ExecutedProcesses)
}

func TestIsDone(t *testing.T) {
	m := order.NewManager()
	id := m.CreateOrder(1)
	m.TryAssignToTray(7)

	assert.False(t, m.IsDone(id))
	m.Finish(id)
	assert.True(t, m.IsDone(id))
	assert.False(t, m.IsDone(999))
}
