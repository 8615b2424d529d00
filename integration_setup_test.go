//go:build integration

package catalog2pdf

// Notes:
// - Integration test setup: shared ExporterPool for all integration tests
// - testPool is initialized in TestMain and closed after all tests complete
// - acquireExporter helper provides automatic cleanup via t.Cleanup()
// - Pool size is capped at 2 since every exporter owns a Chrome process

import (
	"context"
	"os"
	"testing"
	"time"
)

// testTimeout is the standard timeout for integration test operations.
const testTimeout = 60 * time.Second

// testPool is shared by all integration tests. Tests only Acquire/Release.
var testPool *ExporterPool

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "catalog2pdf-it-*")
	if err != nil {
		panic(err)
	}

	testPool = NewExporterPool(min(ResolvePoolSize(0), 2),
		WithTimeout(testTimeout),
		WithBlobStore(newIntegrationBlobs(dir)),
	)

	code := m.Run()

	_ = testPool.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// acquireExporter gets an exporter from the shared pool with automatic cleanup.
func acquireExporter(t *testing.T) *Exporter {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	exp, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	t.Cleanup(func() { testPool.Release(exp) })
	return exp
}
