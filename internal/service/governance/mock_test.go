package governance

import (
	"fmt"
	"io"
	"log/slog"

	"qs-governance/internal/testutil"
)

// errTest is a sentinel error for test scenarios.
var errTest = fmt.Errorf("test error")

// testLogger discards output; reconciler logging is not under test.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Type aliases for convenience — keeps test code short.
type mockGateway = testutil.MockGateway
type mockStore = testutil.MockManifestStore
