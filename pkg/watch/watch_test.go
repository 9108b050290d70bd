package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/metrics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

type fixture struct {
	dir     string
	profile string
	output  string
	gm      *metrics.GeneratorMetrics
	updates chan Update
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		profile: filepath.Join(dir, "printer.yaml"),
		output:  filepath.Join(dir, "macros.cfg"),
		gm:      metrics.NewGeneratorMetrics(),
		updates: make(chan Update, 16),
	}
	f.write(t, doc)
	return f
}

func (f *fixture) write(t *testing.T, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.profile, []byte(doc), 0o644))
}

func (f *fixture) options() Options {
	return Options{
		Profile:  f.profile,
		Output:   f.output,
		Debounce: 20 * time.Millisecond,
		Metrics:  f.gm,
		OnUpdate: func(u Update) { f.updates <- u },
	}
}

// waitFor drains updates until match accepts one.
func (f *fixture) waitFor(t *testing.T, match func(Update) bool) Update {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-f.updates:
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for regeneration")
		}
	}
}

func (f *fixture) read(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.output)
	require.NoError(t, err)
	return string(data)
}

func TestRegenerateOnce(t *testing.T) {
	f := newFixture(t, "archetype: delta\nmax_x: 200\nmax_y: 200\n")
	w, err := New(f.options())
	require.NoError(t, err)

	u := w.Regenerate()
	require.NoError(t, u.Err)
	assert.True(t, u.Written)
	assert.Contains(t, f.read(t), "ARCHETYPE: DELTA")
	assert.Equal(t, uint64(1), f.gm.FilesWritten.Get(nil))
	assert.Equal(t, uint64(1), f.gm.ProfileReloads.Get(metrics.Labels{"result": "ok"}))
}

func TestRegenerateBlockedKeepsOutput(t *testing.T) {
	f := newFixture(t, "material: PLA\n")
	w, err := New(f.options())
	require.NoError(t, err)
	require.NoError(t, w.Regenerate().Err)
	before := f.read(t)

	f.write(t, "margin: 500\n")
	u := w.Regenerate()
	require.Error(t, u.Err)
	assert.True(t, errors.Is(u.Err, errors.ErrProfileValidation))
	assert.False(t, u.Written)
	assert.True(t, u.Result.Has(resolve.CodeMarginRect))
	assert.Equal(t, before, f.read(t))
	assert.Equal(t, uint64(1), f.gm.ProfileReloads.Get(metrics.Labels{"result": "error"}))

	f.write(t, "material: wood\n")
	u = w.Regenerate()
	require.Error(t, u.Err)
	assert.True(t, errors.IsProfile(u.Err))
	assert.Equal(t, before, f.read(t))
}

func TestOverrideApplied(t *testing.T) {
	f := newFixture(t, "material: PLA\n")
	opts := f.options()
	opts.Override = func(p *profile.Profile) { p.ApplyMaterial(profile.PETG) }
	w, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, w.Regenerate().Err)
	assert.Contains(t, f.read(t), "variable_material: 'PETG'")
}

func TestBackupOnChange(t *testing.T) {
	f := newFixture(t, "material: PLA\n")
	opts := f.options()
	opts.Backup = true
	w, err := New(opts)
	require.NoError(t, err)

	u := w.Regenerate()
	require.NoError(t, u.Err)
	assert.Empty(t, u.BackupPath, "nothing to back up on first write")

	f.write(t, "material: ABS\n")
	u = w.Regenerate()
	require.NoError(t, u.Err)
	require.NotEmpty(t, u.BackupPath)
	old, err := os.ReadFile(u.BackupPath)
	require.NoError(t, err)
	assert.Contains(t, string(old), "variable_material: 'PLA'")
}

func TestRunWatchesChanges(t *testing.T) {
	f := newFixture(t, "material: PLA\n")
	w, err := New(f.options())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	f.waitFor(t, func(u Update) bool { return u.Written })
	assert.Contains(t, f.read(t), "variable_material: 'PLA'")

	f.write(t, "material: PETG\n")
	f.waitFor(t, func(u Update) bool { return u.Written && hasMaterial(f, "PETG") })

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "notes.txt"), []byte("x"), 0o644))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func hasMaterial(f *fixture, m string) bool {
	data, err := os.ReadFile(f.output)
	return err == nil && strings.Contains(string(data), "variable_material: '"+m+"'")
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(Options{Profile: filepath.Join(t.TempDir(), "nope", "printer.yaml"), Output: "x.cfg"})
	require.Error(t, err)
}
