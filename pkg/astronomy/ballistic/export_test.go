package ballistic

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed drives s to impact one step at a time and hands new samples to sink.
func feed(t *testing.T, s *State, sink SnapshotSink, cfg LaunchConfig) {
	t.Helper()
	require.NoError(t, sink.OnStart(cfg))
	written := 0
	for !s.Impact() {
		Advance(s, 1)
		require.NoError(t, sink.OnSamples(s.Log()[written:]))
		written = s.LogLen()
	}
	require.NoError(t, sink.OnEnd(Report(s)))
	require.NoError(t, sink.Close())
}

func TestCSVSnapshotWriter_MatchesWriteCSV(t *testing.T) {
	cfg := dropConfig()
	s := New(cfg)

	path := filepath.Join(t.TempDir(), "drop.csv")
	w, err := NewCSVSnapshotWriter(path)
	require.NoError(t, err)
	feed(t, s, w, cfg)

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, WriteCSV(&want, s.Log()))
	assert.Equal(t, want.String(), string(got))
}

func TestCSVSnapshotStream_LeavesWriterUsable(t *testing.T) {
	cfg := dropConfig()
	var buf bytes.Buffer
	feed(t, New(cfg), NewCSVSnapshotStream(&buf), cfg)

	buf.WriteString("tail\n")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "time,x,y,z,height", lines[0])
	assert.Equal(t, "tail", lines[4])
}

func TestJSONLSnapshotWriter(t *testing.T) {
	cfg := dropConfig()
	cfg.LogInterval = 0 // only the launch sample
	s := New(cfg)

	path := filepath.Join(t.TempDir(), "drop.jsonl")
	w, err := NewJSONLSnapshotWriter(path)
	require.NoError(t, err)
	feed(t, s, w, cfg)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var kinds []string
	var last map[string]json.RawMessage
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		var kind string
		require.NoError(t, json.Unmarshal(rec["kind"], &kind))
		kinds = append(kinds, kind)
		last = rec
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"config", "sample", "info"}, kinds)

	var info Info
	require.NoError(t, json.Unmarshal(last["info"], &info))
	assert.True(t, info.Impact)
	assert.Equal(t, 2, info.Iterations)
	assert.False(t, math.IsNaN(info.Height))
}
