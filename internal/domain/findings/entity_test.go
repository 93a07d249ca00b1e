package findings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcknowledge(t *testing.T) {
	f := &Finding{ID: "f1", Severity: SeverityHigh}
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	f.Acknowledge("alice", "known issue, ships next sprint", at)

	assert.True(t, f.Acked)
	assert.Equal(t, "alice", f.AckedBy)
	require.NotNil(t, f.AckedAt)
	assert.Equal(t, at, *f.AckedAt)
	assert.Equal(t, "known issue, ships next sprint", f.AckNote)
}

func TestReacknowledgeOverwrites(t *testing.T) {
	f := &Finding{ID: "f1"}
	f.Acknowledge("alice", "first", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	later := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	f.Acknowledge("bob", "second", later)

	assert.Equal(t, "bob", f.AckedBy)
	assert.Equal(t, "second", f.AckNote)
	assert.Equal(t, later, *f.AckedAt)
}
