package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/logger"
)

func TestOpenUsesWorkspaceConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("completion:\n  prompt_for_note: false\n"), 0o644))

	eng, closeFn, err := Open(context.Background(), Options{Workspace: dir, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, eng.Config.Completion.PromptForNote)
	_, err = os.Stat(filepath.Join(dir, ".teaching", "teaching.db"))
	require.NoError(t, err)

	s, err := eng.CreateSubject(context.Background(), "French", "tester")
	require.NoError(t, err)
	assert.NotZero(t, s.ID)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("log:\n  mode: loud\n"), 0o644))
	_, _, err := Open(context.Background(), Options{Workspace: dir, Logger: logger.NewNop()})
	require.Error(t, err)
}
