package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesJSONLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.log")
	l := NewZapLogger(Options{FilePath: path, Level: "info"})

	l.Debug("test", "hidden", nil)
	l.Info("workspace", "allocated", map[string]interface{}{"path": "/tmp/x"})
	l.Error("service", "query failed", map[string]interface{}{"error": errors.New("boom")})
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "allocated", entries[0]["message"])
	assert.Equal(t, "workspace", entries[0]["module"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
	details, ok := entries[1]["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", details["error"])
}

func TestParseLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "info", parseLevel("loud").String())
}
