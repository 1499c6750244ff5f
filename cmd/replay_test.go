package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-enrich/internal/ledger"
)

func TestCheckReplayFlags(t *testing.T) {
	assert.NoError(t, checkReplayFlags(3, false, ""))
	assert.NoError(t, checkReplayFlags(0, true, ""))
	assert.NoError(t, checkReplayFlags(0, false, "manual.json"))
	assert.NoError(t, checkReplayFlags(7, false, "manual.json"))

	assert.Error(t, checkReplayFlags(0, false, ""))
	assert.Error(t, checkReplayFlags(3, true, ""))
	assert.Error(t, checkReplayFlags(0, true, "manual.json"))
}

func seededLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	fs := afero.NewMemMapFs()
	led := ledger.New(fs, "batches")
	require.NoError(t, led.Persist(ledger.Entry{Batch: 1, Prompt: "p", Raw: "[]"}))
	require.NoError(t, led.PersistFailure(ledger.Entry{Batch: 2, Prompt: "p", Raw: "oops"}))
	require.NoError(t, afero.WriteFile(fs, "batches/batch-3-results.json",
		[]byte(`[{"name":"Kelcon, LLC","found":true,"city":"Brownsboro"}]`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "manual.json", []byte(`[{"name":"ICA","found":false}]`), 0o644))
	return led
}

func TestReplayJobs_All(t *testing.T) {
	jobs, err := replayJobs(seededLedger(t), 0, true, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 1, jobs[0].batch)
	assert.Empty(t, jobs[0].candidates)
	assert.Equal(t, 3, jobs[1].batch)
	assert.Equal(t, "Kelcon, LLC", jobs[1].candidates[0].Name)
}

func TestReplayJobs_Batch(t *testing.T) {
	jobs, err := replayJobs(seededLedger(t), 3, false, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].candidates, 1)

	_, err = replayJobs(seededLedger(t), 2, false, "")
	assert.Error(t, err)
}

func TestReplayJobs_File(t *testing.T) {
	jobs, err := replayJobs(seededLedger(t), 9, false, "manual.json")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 9, jobs[0].batch)
	assert.False(t, jobs[0].candidates[0].Found)
}

func TestReplayJobs_EmptyLedger(t *testing.T) {
	_, err := replayJobs(ledger.New(afero.NewMemMapFs(), "batches"), 0, true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no batch results")
}
