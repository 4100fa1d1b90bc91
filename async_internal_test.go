package easyfile

import "testing"

// TestPoolLimit_FrozenAfterFirstUse verifies the concurrency limit used
// by offloaded operations and batch reads is snapshotted when the pool
// is built: a later SetWorkerLimit call must not change it.
func TestPoolLimit_FrozenAfterFirstUse(t *testing.T) {
	before := poolLimit()

	SetWorkerLimit(int64(before) + 7)

	if got := poolLimit(); got != before {
		t.Fatalf("poolLimit=%d after late SetWorkerLimit, want frozen %d", got, before)
	}
}
