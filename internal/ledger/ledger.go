// Package ledger persists the artifacts of each research batch (prompt,
// submitted names, raw response, parsed candidates) in a numbered,
// append-only directory.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/model"
)

// ErrExists is returned when a batch artifact is already on disk.
var ErrExists = eris.New("ledger: artifact already exists")

// ErrNoResults is returned by LoadCandidates for a batch without results.
var ErrNoResults = eris.New("ledger: batch has no results")

var batchFile = regexp.MustCompile(`^batch-(\d+)-`)

// Artifact kinds, in the order Persist writes them.
const (
	KindPrompt  = "prompt.txt"
	KindNames   = "contractors.json"
	KindRaw     = "raw.txt"
	KindResults = "results.json"
)

// Entry is one research batch.
type Entry struct {
	Batch      int
	Names      []string
	Prompt     string
	Raw        string
	Candidates []model.Candidate
}

// Ledger reads and writes batch artifacts under Dir on FS.
type Ledger struct {
	fs  afero.Fs
	dir string
}

// New returns a ledger rooted at dir. A nil fs uses the OS filesystem.
func New(fs afero.Fs, dir string) *Ledger {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Ledger{fs: fs, dir: dir}
}

// Dir returns the ledger directory.
func (l *Ledger) Dir() string { return l.dir }

// Path returns the artifact path for batch n and kind.
func (l *Ledger) Path(n int, kind string) string {
	return filepath.Join(l.dir, fmt.Sprintf("batch-%d-%s", n, kind))
}

// NextBatchNumber returns one more than the highest batch number on disk, or
// 1 when the directory is empty or missing.
func (l *Ledger) NextBatchNumber() (int, error) {
	nums, err := l.scan(func(string) bool { return true })
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 1, nil
	}
	return nums[len(nums)-1] + 1, nil
}

// List returns the batch numbers that have parsed results, ascending.
func (l *Ledger) List() ([]int, error) {
	return l.scan(func(name string) bool {
		return strings.HasSuffix(name, "-"+KindResults)
	})
}

func (l *Ledger) scan(keep func(name string) bool) ([]int, error) {
	infos, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ledger: read dir %s", l.dir)
	}

	seen := make(map[int]struct{})
	for _, fi := range infos {
		if fi.IsDir() || !keep(fi.Name()) {
			continue
		}
		m := batchFile.FindStringSubmatch(fi.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[n] = struct{}{}
	}

	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// Persist writes every artifact of e, results included. Nothing is
// overwritten: if any artifact of the batch exists Persist fails before
// writing.
func (l *Ledger) Persist(e Entry) error {
	results, err := json.MarshalIndent(nonNil(e.Candidates), "", "  ")
	if err != nil {
		return eris.Wrap(err, "ledger: encode results")
	}
	return l.write(e, results)
}

// PersistFailure writes the prompt, names and raw response of a batch whose
// response could not be parsed. The batch number is consumed.
func (l *Ledger) PersistFailure(e Entry) error {
	return l.write(e, nil)
}

type artifact struct {
	kind string
	data []byte
}

func (l *Ledger) write(e Entry, results []byte) error {
	if e.Batch <= 0 {
		return eris.Errorf("ledger: invalid batch number %d", e.Batch)
	}

	names, err := json.MarshalIndent(nonNilNames(e.Names), "", "  ")
	if err != nil {
		return eris.Wrap(err, "ledger: encode names")
	}

	files := []artifact{
		{KindPrompt, []byte(e.Prompt)},
		{KindNames, names},
		{KindRaw, []byte(e.Raw)},
	}
	if results != nil {
		files = append(files, artifact{KindResults, results})
	}

	for _, f := range files {
		exists, err := afero.Exists(l.fs, l.Path(e.Batch, f.kind))
		if err != nil {
			return eris.Wrap(err, "ledger: stat artifact")
		}
		if exists {
			return eris.Wrapf(ErrExists, "batch %d %s", e.Batch, f.kind)
		}
	}

	if err := l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return eris.Wrapf(err, "ledger: create dir %s", l.dir)
	}
	for _, f := range files {
		path := l.Path(e.Batch, f.kind)
		if err := afero.WriteFile(l.fs, path, f.data, 0o644); err != nil {
			return eris.Wrapf(err, "ledger: write %s", path)
		}
	}

	zap.L().Info("ledger: batch persisted",
		zap.Int("batch", e.Batch),
		zap.Int("names", len(e.Names)),
		zap.Bool("parsed", results != nil),
	)
	return nil
}

// LoadCandidates reads the parsed results of batch n.
func (l *Ledger) LoadCandidates(n int) ([]model.Candidate, error) {
	path := l.Path(n, KindResults)
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNoResults, "batch %d", n)
		}
		return nil, eris.Wrapf(err, "ledger: read %s", path)
	}
	return DecodeCandidates(data)
}

// LoadFile reads candidates from an arbitrary results file on the ledger's
// filesystem.
func (l *Ledger) LoadFile(path string) ([]model.Candidate, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: read %s", path)
	}
	return DecodeCandidates(data)
}

// DecodeCandidates decodes a JSON array of candidates.
func DecodeCandidates(data []byte) ([]model.Candidate, error) {
	var out []model.Candidate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "ledger: decode results")
	}
	return out, nil
}

func nonNil(c []model.Candidate) []model.Candidate {
	if c == nil {
		return []model.Candidate{}
	}
	return c
}

func nonNilNames(n []string) []string {
	if n == nil {
		return []string{}
	}
	return n
}
