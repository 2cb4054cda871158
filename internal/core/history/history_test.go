package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, sessionID string, limit int) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "history.json"), sessionID, limit)
	require.NoError(t, err)
	return j
}

func executed(path string) core.Outcome {
	return core.Outcome{Message: core.MessageExecuted, Platform: "mac", ScriptPath: path, Branch: core.BranchAutomate}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		out  core.Outcome
		want Status
	}{
		{"blocked", core.Outcome{Message: core.MessageBlocked, Blocked: true, Branch: core.BranchBlocked}, StatusBlocked},
		{"chat", core.Outcome{Message: "Hi!", Branch: core.BranchChat}, StatusChat},
		{"executed", executed("/tmp/x.scpt"), StatusExecuted},
		{"cancelled", core.Outcome{Message: core.MessageCancelled, Branch: core.BranchAutomate}, StatusCancelled},
		{"no script", core.Outcome{Message: core.MessageNoScript, Branch: core.BranchAutomate}, StatusNoScript},
		{"write failure", core.Outcome{Message: "No script generated: disk full", Branch: core.BranchAutomate}, StatusFailed},
		{"launch failure", core.Outcome{Message: core.MessageNotLaunched, ScriptPath: "/tmp/x.scpt", Branch: core.BranchAutomate}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.out))
		})
	}
}

func TestJournal_RecordPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	j, err := Open(path, "s1", 0)
	require.NoError(t, err)

	require.NoError(t, j.Record(core.Request{Text: "open gmail", Platform: "mac"}, executed("/tmp/a.scpt")))
	require.NoError(t, j.Record(core.Request{Text: "hello"}, core.Outcome{Message: "Hi", Platform: "mac", Branch: core.BranchChat}))

	reopened, err := Open(path, "s2", 0)
	require.NoError(t, err)

	all := reopened.Recent(0)
	require.Len(t, all, 2)
	assert.Equal(t, "open gmail", all[0].Text)
	assert.Equal(t, StatusExecuted, all[0].Status)
	assert.Equal(t, "/tmp/a.scpt", all[0].ScriptPath)
	assert.Equal(t, StatusChat, all[1].Status)
	assert.Equal(t, "s1", all[1].SessionID)
	assert.NoError(t, reopened.Close())
}

func TestJournal_Limit(t *testing.T) {
	j := openTemp(t, "s", 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(core.Request{Text: fmt.Sprintf("cmd %d", i)}, executed("p")))
	}

	all := j.Recent(0)
	require.Len(t, all, 3)
	assert.Equal(t, "cmd 2", all[0].Text)
	assert.Equal(t, "cmd 4", all[2].Text)
}

func TestJournal_Recent(t *testing.T) {
	j := openTemp(t, "s", 0)
	for i := 0; i < 4; i++ {
		require.NoError(t, j.Record(core.Request{Text: fmt.Sprintf("cmd %d", i)}, executed("p")))
	}

	recent := j.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "cmd 2", recent[0].Text)
	assert.Equal(t, "cmd 3", recent[1].Text)

	assert.Len(t, j.Recent(0), 4)
	assert.Len(t, j.Recent(10), 4)
}

func TestJournal_BySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	first, err := Open(path, "a", 0)
	require.NoError(t, err)
	require.NoError(t, first.Record(core.Request{Text: "one"}, executed("p")))

	second, err := Open(path, "b", 0)
	require.NoError(t, err)
	require.NoError(t, second.Record(core.Request{Text: "two"}, executed("p")))

	require.NoError(t, second.Record(core.Request{Text: "three"}, executed("p")))

	onlyB := second.BySession("b", 0)
	require.Len(t, onlyB, 2)
	assert.Equal(t, "two", onlyB[0].Text)
	assert.Equal(t, "three", onlyB[1].Text)

	newest := second.BySession("b", 1)
	require.Len(t, newest, 1)
	assert.Equal(t, "three", newest[0].Text)

	assert.Empty(t, second.BySession("c", 0))
	assert.Empty(t, second.BySession("", 0))
}

func TestJournal_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	j, err := Open(path, "s", 0)
	require.NoError(t, err)
	require.NoError(t, j.Record(core.Request{Text: "one"}, executed("p")))

	require.NoError(t, j.Clear())
	assert.Empty(t, j.Recent(0))

	reopened, err := Open(path, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, reopened.Recent(0))
}

type failingBackend struct {
	entries []*Entry
	err     error
}

func (b *failingBackend) Load() ([]*Entry, error) { return b.entries, nil }

func (b *failingBackend) Save(entries []*Entry) error { return b.err }

func TestJournal_RecordSaveFailureKeepsMemoryUnchanged(t *testing.T) {
	backend := &failingBackend{}
	j, err := New(backend, "s", 2)
	require.NoError(t, err)

	require.NoError(t, j.Record(core.Request{Text: "one"}, executed("p")))
	require.NoError(t, j.Record(core.Request{Text: "two"}, executed("p")))

	backend.err = errors.New("disk full")
	err = j.Record(core.Request{Text: "three"}, executed("p"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	entries := j.Recent(0)
	require.Len(t, entries, 2, "a failed save must not trim or append")
	assert.Equal(t, "one", entries[0].Text)
	assert.Equal(t, "two", entries[1].Text)

	assert.Error(t, j.Clear())
	assert.Len(t, j.Recent(0), 2)
}

func TestJournal_ConcurrentRecord(t *testing.T) {
	j := openTemp(t, "s", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, j.Record(core.Request{Text: fmt.Sprintf("cmd %d", i)}, executed("p")))
		}(i)
	}
	wg.Wait()

	assert.Len(t, j.Recent(0), 10)
}

func TestJournal_ImplementsRecorder(t *testing.T) {
	var _ core.Recorder = openTemp(t, "s", 0)
}
