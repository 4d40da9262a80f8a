package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/internal/domain/entity"
)

func TestSequenceRepository_Next(t *testing.T) {
	db := newTestDB(t)
	sequences := NewSequenceRepository(db.DB, zap.NewNop())

	for want := int64(1); want <= 3; want++ {
		got, err := sequences.Next(context.Background(), entity.DocTypePurchaseRequest, "20240315")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// a new period restarts the counter
	got, err := sequences.Next(context.Background(), entity.DocTypePurchaseRequest, "20240316")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	// document types count independently
	got, err = sequences.Next(context.Background(), entity.DocTypePayment, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSequenceRepository_ConcurrentNextNeverRepeats(t *testing.T) {
	db := newTestDB(t)
	sequences := NewSequenceRepository(db.DB, zap.NewNop())

	const callers = 30
	values := make(chan int64, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := sequences.Next(context.Background(), entity.DocTypePurchaseOrder, "20240315")
			if err != nil {
				t.Errorf("concurrent Next: %v", err)
				return
			}
			values <- value
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for value := range values {
		assert.False(t, seen[value], "value %d assigned twice", value)
		seen[value] = true
	}
	assert.Len(t, seen, callers)
}
