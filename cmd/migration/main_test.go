package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	target  uint
	forced  int
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error                    { return f.upErr }
func (f *fakeMigrator) Steps(n int) error            { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Migrate(version uint) error   { f.target = version; return nil }
func (f *fakeMigrator) Force(version int) error      { f.forced = version; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }

func TestCommands(t *testing.T) {
	t.Run("up ignores no change", func(t *testing.T) {
		m := &fakeMigrator{upErr: migrate.ErrNoChange}
		require.NoError(t, commands["up"].run(m, nil, nil))
	})

	t.Run("down defaults to one step", func(t *testing.T) {
		m := &fakeMigrator{}
		require.NoError(t, commands["down"].run(m, nil, nil))
		require.NoError(t, commands["down"].run(m, []string{"3"}, nil))
		assert.Equal(t, []int{-1, -3}, m.steps)
	})

	t.Run("down rejects non positive steps", func(t *testing.T) {
		require.Error(t, commands["down"].run(&fakeMigrator{}, []string{"0"}, nil))
		require.Error(t, commands["down"].run(&fakeMigrator{}, []string{"x"}, nil))
	})

	t.Run("goto and force parse versions", func(t *testing.T) {
		m := &fakeMigrator{}
		require.NoError(t, commands["goto"].run(m, []string{"1"}, nil))
		require.NoError(t, commands["force"].run(m, []string{" 1 "}, nil))
		assert.Equal(t, uint(1), m.target)
		assert.Equal(t, 1, m.forced)

		require.ErrorIs(t, commands["goto"].run(m, nil, nil), errUsage)
		require.Error(t, commands["force"].run(m, []string{"-2"}, nil))
	})

	t.Run("version prints state", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, commands["version"].run(&fakeMigrator{version: 1, dirty: true}, nil, &out))
		assert.Equal(t, "version: 1\ndirty: true\n", out.String())

		out.Reset()
		require.NoError(t, commands["version"].run(&fakeMigrator{verErr: migrate.ErrNilVersion}, nil, &out))
		assert.Equal(t, "version: none\ndirty: false\n", out.String())

		boom := errors.New("boom")
		require.ErrorIs(t, commands["version"].run(&fakeMigrator{verErr: boom}, nil, &out), boom)
	})
}

func TestRun_Usage(t *testing.T) {
	require.ErrorIs(t, run(nil, logging.NewNop()), errUsage)
	require.ErrorIs(t, run([]string{"sideways"}, logging.NewNop()), errUsage)
}

func TestRun_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	require.ErrorContains(t, run([]string{"up"}, logging.NewNop()), "DB_URL")
}
