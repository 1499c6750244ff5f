package ledger

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-enrich/internal/model"
)

const dir = "temp/research-batches"

func newTestLedger(t *testing.T) (*Ledger, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(fs, dir), fs
}

func touch(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, dir+"/"+name, []byte("[]"), 0o644))
}

func TestNextBatchNumber_MissingDir(t *testing.T) {
	l, _ := newTestLedger(t)
	n, err := l.NextBatchNumber()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNextBatchNumber_Gaps(t *testing.T) {
	l, fs := newTestLedger(t)
	touch(t, fs, "batch-1-results.json")
	touch(t, fs, "batch-3-results.json")
	touch(t, fs, "notes.txt")
	touch(t, fs, "batch-x-results.json")

	n, err := l.NextBatchNumber()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNextBatchNumber_CountsFailedBatches(t *testing.T) {
	l, fs := newTestLedger(t)
	touch(t, fs, "batch-2-results.json")
	touch(t, fs, "batch-10-raw.txt")

	n, err := l.NextBatchNumber()
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestPersist_WritesAllArtifacts(t *testing.T) {
	l, fs := newTestLedger(t)
	e := Entry{
		Batch:      1,
		Names:      []string{"Kelcon, LLC"},
		Prompt:     "prompt text",
		Raw:        "```json\n[]\n```",
		Candidates: []model.Candidate{{Name: "Kelcon, LLC", Found: true, City: "Brownsboro"}},
	}
	require.NoError(t, l.Persist(e))

	for _, kind := range []string{KindPrompt, KindNames, KindRaw, KindResults} {
		ok, err := afero.Exists(fs, l.Path(1, kind))
		require.NoError(t, err)
		assert.True(t, ok, kind)
	}

	prompt, err := afero.ReadFile(fs, l.Path(1, KindPrompt))
	require.NoError(t, err)
	assert.Equal(t, "prompt text", string(prompt))

	got, err := l.LoadCandidates(1)
	require.NoError(t, err)
	assert.Equal(t, e.Candidates, got)
}

func TestPersist_RefusesOverwrite(t *testing.T) {
	l, fs := newTestLedger(t)
	require.NoError(t, l.Persist(Entry{Batch: 1, Prompt: "first"}))

	err := l.Persist(Entry{Batch: 1, Prompt: "second"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrExists))

	prompt, err := afero.ReadFile(fs, l.Path(1, KindPrompt))
	require.NoError(t, err)
	assert.Equal(t, "first", string(prompt))
}

func TestPersist_InvalidBatch(t *testing.T) {
	l, _ := newTestLedger(t)
	assert.Error(t, l.Persist(Entry{Batch: 0}))
}

func TestPersistFailure_ConsumesNumber(t *testing.T) {
	l, fs := newTestLedger(t)
	require.NoError(t, l.PersistFailure(Entry{Batch: 1, Names: []string{"ICA"}, Prompt: "p", Raw: "not json"}))

	ok, err := afero.Exists(fs, l.Path(1, KindResults))
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := afero.ReadFile(fs, l.Path(1, KindRaw))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))

	n, err := l.NextBatchNumber()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = l.LoadCandidates(1)
	assert.True(t, eris.Is(err, ErrNoResults))
}

func TestList(t *testing.T) {
	l, fs := newTestLedger(t)
	touch(t, fs, "batch-3-results.json")
	touch(t, fs, "batch-1-results.json")
	touch(t, fs, "batch-2-raw.txt")

	nums, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, nums)
}

func TestLoadFile(t *testing.T) {
	l, fs := newTestLedger(t)
	require.NoError(t, afero.WriteFile(fs, "manual.json", []byte(`[{"name":"ICA","found":true,"yearsInBusiness":"12"}]`), 0o644))

	got, err := l.LoadFile("manual.json")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.FlexInt(12), got[0].YearsInBusiness)

	require.NoError(t, afero.WriteFile(fs, "bad.json", []byte(`{nope`), 0o644))
	_, err = l.LoadFile("bad.json")
	assert.Error(t, err)
}
