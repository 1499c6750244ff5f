package publish

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/config"
)

const (
	frontMatter  = "---\n"
	markerPrefix = "// Auto-batch-"
)

// CommandRunner runs name with args in dir and returns combined output.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// GitOption configures a Git publisher.
type GitOption func(*Git)

// WithFs sets the filesystem the marker file is edited on. Nil is ignored.
func WithFs(fs afero.Fs) GitOption {
	return func(g *Git) {
		if fs != nil {
			g.fs = fs
		}
	}
}

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) GitOption {
	return func(g *Git) { g.run = r }
}

// WithClock replaces the marker timestamp source.
func WithClock(now func() time.Time) GitOption {
	return func(g *Git) { g.now = now }
}

// Git rewrites a marker line in a tracked file, then commits and pushes it so
// the hosting provider rebuilds the site.
type Git struct {
	cfg config.GitConfig
	fs  afero.Fs
	run CommandRunner
	now func() time.Time
}

// NewGit creates a git publisher.
func NewGit(cfg config.GitConfig, opts ...GitOption) *Git {
	if cfg.RepoDir == "" {
		cfg.RepoDir = "."
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	g := &Git{cfg: cfg, fs: afero.NewOsFs(), run: execRunner, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Git) Name() string { return ModeGit }

// Publish updates the marker, then runs git add, commit and push.
func (g *Git) Publish(ctx context.Context, sig Signal) error {
	at := sig.At
	if at.IsZero() {
		at = g.now()
	}

	path := filepath.Join(g.cfg.RepoDir, g.cfg.MarkerFile)
	content, err := afero.ReadFile(g.fs, path)
	if err != nil {
		return eris.Wrapf(err, "publish: git: read %s", path)
	}

	updated, err := ApplyMarker(string(content), MarkerLine(sig.Batch, sig.RecordsChanged, at))
	if err != nil {
		return eris.Wrapf(err, "publish: git: %s", path)
	}
	if err := afero.WriteFile(g.fs, path, []byte(updated), 0o644); err != nil {
		return eris.Wrapf(err, "publish: git: write %s", path)
	}

	msg := fmt.Sprintf("Auto-batch %d: %d contractors researched", sig.Batch, sig.RecordsChanged)
	steps := [][]string{
		{"add", g.cfg.MarkerFile},
		{"commit", "-m", msg},
		{"push", g.cfg.Remote, g.cfg.Branch},
	}
	for _, args := range steps {
		out, err := g.run(ctx, g.cfg.RepoDir, "git", args...)
		if err != nil {
			return eris.Wrapf(err, "publish: git %s: %s", args[0], strings.TrimSpace(string(out)))
		}
	}

	zap.L().Info("publish: pushed marker commit",
		zap.Int("batch", sig.Batch),
		zap.Int("records_changed", sig.RecordsChanged),
		zap.String("remote", g.cfg.Remote),
		zap.String("branch", g.cfg.Branch),
	)
	return nil
}

// MarkerLine renders the marker comment for a batch.
func MarkerLine(batch, count int, at time.Time) string {
	return fmt.Sprintf("%s%d: %d contractors - %s", markerPrefix, batch, count, at.UTC().Format("2006-01-02T15:04:05.000Z"))
}

// ApplyMarker places line directly after the leading front matter fence,
// replacing a previous marker line there.
func ApplyMarker(content, line string) (string, error) {
	if !strings.HasPrefix(content, frontMatter) {
		return "", eris.New("no leading front matter")
	}
	rest := content[len(frontMatter):]
	if strings.HasPrefix(rest, markerPrefix) {
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		} else {
			rest = ""
		}
	}
	return frontMatter + line + "\n" + rest, nil
}
