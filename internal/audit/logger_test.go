package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/device"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestNewLoggerCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	logger, err := NewLogger(dir)
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, filepath.Join(dir, "audit.jsonl"), logger.FilePath())
	_, err = os.Stat(logger.FilePath())
	assert.NoError(t, err)
}

func TestLogCommandWritesJSONLine(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	defer logger.Close()

	cmd := command.New(command.CategoryPanel, command.KindSetStrength, device.ChannelA, command.OpIncrease, 5, "panel")
	logger.LogCommand(cmd, "SUCCESS", nil)

	entries := readEntries(t, logger.FilePath())
	require.Len(t, entries, 1)
	assert.Equal(t, "panel", entries[0].Source)
	assert.Equal(t, "PANEL", entries[0].Category)
	assert.Equal(t, "A", entries[0].Channel)
	assert.Equal(t, 5, entries[0].Value)
	assert.Equal(t, "SUCCESS", entries[0].Outcome)
	assert.Equal(t, "SUCCESS", entries[0].Code)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestLogActionRecordsControllerSource(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	defer logger.Close()

	logger.LogAction("fire", device.ChannelB, 60, "SUCCESS", nil)

	entries := readEntries(t, logger.FilePath())
	require.Len(t, entries, 1)
	assert.Equal(t, "controller", entries[0].Source)
	assert.Equal(t, "B", entries[0].Channel)
	assert.Equal(t, "fire", entries[0].Action)
	assert.Equal(t, 60, entries[0].Value)
}

func TestErrorCodesMapToSentinels(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	defer logger.Close()

	cmd := command.New(command.CategoryGUI, command.KindSetStrength, device.ChannelA, command.OpSetTo, 10, "ui")
	logger.LogCommand(cmd, "ERROR", device.NormalizeError(errors.New("STRENGTH_LIMIT exceeded")))
	logger.LogCommand(cmd, "ERROR", device.NormalizeError(errors.New("device busy")))
	logger.LogCommand(cmd, "ERROR", device.NormalizeError(errors.New("connection closed by peer")))
	logger.LogCommand(cmd, "ERROR", errors.New("something else"))

	entries := readEntries(t, logger.FilePath())
	require.Len(t, entries, 4)
	assert.Equal(t, "INVALID_RANGE", entries[0].Code)
	assert.Equal(t, "BUSY", entries[1].Code)
	assert.Equal(t, "UNAVAILABLE", entries[2].Code)
	assert.Equal(t, "ERROR", entries[3].Code)
}

func TestRotateStartsFreshFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir)
	require.NoError(t, err)
	defer logger.Close()

	logger.LogAction("before", device.ChannelA, 1, "SUCCESS", nil)
	require.NoError(t, logger.Rotate())
	logger.LogAction("after", device.ChannelA, 2, "SUCCESS", nil)

	entries := readEntries(t, logger.FilePath())
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].Action)

	matches, err := filepath.Glob(logger.FilePath() + ".*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	rotated := readEntries(t, matches[0])
	require.Len(t, rotated, 1)
	assert.Equal(t, "before", rotated[0].Action)
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}
