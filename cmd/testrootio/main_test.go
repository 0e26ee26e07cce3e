package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testevents.root")

	assert.Equal(t, 0, run([]string{"-file", path, "-events", "3", "-particles", "4", "-keep"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	assert.Equal(t, 0, run([]string{"-file", path, "-compression", "505"}))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Failures(t *testing.T) {
	assert.Equal(t, 1, run([]string{"-file", filepath.Join(t.TempDir(), "missing", "x.root")}))
	assert.Equal(t, 1, run([]string{"-file", filepath.Join(t.TempDir(), "x.root"), "-compression", "999"}))
	assert.Equal(t, 2, run([]string{"-bogus"}))
}
