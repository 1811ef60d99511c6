package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
	"github.com/san-kum/topple/internal/sim"
)

func newEngine(t *testing.T) *automaton.Engine[int64] {
	t.Helper()
	r, err := rules.NewSunflower[int64](numeric.Checked{}, 2, 0)
	require.NoError(t, err)
	e, err := automaton.New(automaton.Variant[int64]{Dim: 2, Arith: numeric.Checked{}, Rule: r},
		automaton.SingleSource[int64](800, 0))
	require.NoError(t, err)
	return e
}

func defaultCfg() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Initial = "single-source_800"
	return cfg
}

func runOnce(t *testing.T, st *Store, steps int64) (*Run, *sim.Result, automaton.Model) {
	t.Helper()
	run, err := st.Create(defaultCfg())
	require.NoError(t, err)

	e := newEngine(t)
	result, err := sim.New(nil).Run(context.Background(), e, sim.Config{
		Steps:           steps,
		CheckpointEvery: 2,
		CheckpointDir:   run.CheckpointDir(),
		Trace:           true,
	})
	require.NoError(t, err)
	require.NoError(t, st.Save(run, e, result))
	return run, result, e
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	run, result, e := runOnce(t, st, 4)
	assert.NotEmpty(t, run.Meta.ID)
	assert.Equal(t, filepath.Join(st.BaseDir(), "sunflower", "2D", "single-source_800", "background_0", run.Meta.ID), run.Dir)

	loaded, err := st.Load(run.Meta.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Dir, loaded.Dir)
	assert.Equal(t, int64(4), loaded.Meta.FinalStep)
	assert.Equal(t, e.Side(), loaded.Meta.FinalSide)
	assert.Equal(t, []string{"checkpoints/sunflower_2.ckpt", "checkpoints/sunflower_4.ckpt"}, loaded.Meta.Checkpoints)

	cfg, err := st.LoadConfig(loaded)
	require.NoError(t, err)
	assert.Equal(t, "single-source_800", cfg.Initial)

	trace, err := st.LoadTrace(loaded)
	require.NoError(t, err)
	require.Len(t, trace, len(result.Trace))
	for i := range trace {
		assert.Equal(t, result.Trace[i].Step, trace[i].Step)
		assert.Equal(t, result.Trace[i].Side, trace[i].Side)
		assert.Equal(t, result.Trace[i].Mass.String(), trace[i].Mass.String())
		assert.Equal(t, result.Trace[i].Active.String(), trace[i].Active.String())
		assert.Equal(t, result.Trace[i].Changed, trace[i].Changed)
	}
	assert.True(t, trace[0].Initial)
}

func TestStoreListAndPrefix(t *testing.T) {
	st := New(t.TempDir())
	a, _, _ := runOnce(t, st, 1)
	b, _, _ := runOnce(t, st, 2)

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{a.Meta.ID, b.Meta.ID}, ids)

	got, err := st.Load(b.Meta.ID[:len(b.Meta.ID)-2])
	require.NoError(t, err)
	assert.Equal(t, b.Meta.ID, got.Meta.ID)

	_, err = st.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run, result, _ := runOnce(t, st, 3)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, run.Meta, result.Trace))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, run.Meta.ID, data.Run.ID)
	require.Len(t, data.Trace, 4)
	assert.Equal(t, "800", data.Trace[3].Mass)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ExportJSONFile(path, run.Meta, result.Trace))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
