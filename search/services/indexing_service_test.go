package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConcurrentIndexingSharesOneIndex(t *testing.T) {
	svc := NewIndexingService(zap.NewNop(), t.TempDir())
	defer svc.Close()

	// Startup reindexing, per-request index goroutines and search handlers
	// all race to open the same index.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := svc.IndexDocument("applications", fmt.Sprintf("doc-%d", i), map[string]interface{}{
				"application_number": fmt.Sprintf("VA-2026-%06d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	svc.mu.RLock()
	assert.Len(t, svc.indexes, 1)
	svc.mu.RUnlock()

	fields, err := svc.GetDocument("applications", "doc-3")
	require.NoError(t, err)
	require.NotNil(t, fields)
}
