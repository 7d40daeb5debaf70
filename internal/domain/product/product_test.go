package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconfigmanus/mes-go/internal/domain/product"
)

func TestFirstAndLastProcess(t *testing.T) {
	p := product.New(1, "gearbox", []uint8{3, 5, 7})

	first, ok := p.FirstProcess()
	require.True(t, ok)
	assert.Equal(t, uint8(3), first)

	last, ok := p.LastProcess()
	require.True(t, ok)
	assert.Equal(t, uint8(7), last)
}

func TestEmptyPlanHasNoProcesses(t *testing.T) {
	p := product.New(1, "empty", nil)

	_, ok := p.FirstProcess()
	assert.False(t, ok)
	_, ok = p.LastProcess()
	assert.False(t, ok)
}

func TestRemainingProcesses(t *testing.T) {
	p := product.New(1, "gearbox", []uint8{3, 5, 7})

	remaining, err := p.RemainingProcesses(nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{3, 5, 7}, remaining)

	remaining, err = p.RemainingProcesses([]uint8{3})
	require.NoError(t, err)
	assert.Equal(t, []uint8{5, 7}, remaining)

	remaining, err = p.RemainingProcesses([]uint8{3, 5, 7})
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestRemainingProcessesRejectsNonPrefix(t *testing.T) {
	p := product.New(1, "gearbox", []uint8{3, 5, 7})

	_, err := p.RemainingProcesses([]uint8{5})
	assert.ErrorIs(t, err, product.ErrProcessMismatch)

	_, err = p.RemainingProcesses([]uint8{3, 7})
	assert.ErrorIs(t, err, product.ErrProcessMismatch)

	_, err = p.RemainingProcesses([]uint8{3, 5, 7, 9})
	assert.ErrorIs(t, err, product.ErrProcessMismatch)
}
