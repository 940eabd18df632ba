package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cyquery/internal/cqlerr"
)

func TestMetricsRecordClauseAccumulates(t *testing.T) {
	m := NewMetrics()
	m.RecordClause("Return")
	m.RecordClause("Return")
	m.RecordClause("Match")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ClauseCounts["Return"])
	assert.Equal(t, int64(1), snap.ClauseCounts["Match"])
}

func TestMetricsRecordRunTracksLastErrorByKind(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(nil)
	m.RecordRun(cqlerr.New(cqlerr.UndefinedVariable, "undefined variable %q", "x"))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.RunsTotal)
	assert.Equal(t, int64(1), snap.RunsFailed)
	assert.Contains(t, snap.LastErrors[string(cqlerr.UndefinedVariable)], "x")
}

func TestMetricsRecordVLECall(t *testing.T) {
	m := NewMetrics()
	m.RecordVLECall()
	m.RecordVLECall()

	assert.Equal(t, int64(2), m.Snapshot().VLECalls)
}
