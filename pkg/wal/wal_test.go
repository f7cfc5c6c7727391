package wal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	Seq  int    `json:"seq"`
	Name string `json:"name"`
}

func openLog(t *testing.T, path string) *Log {
	t.Helper()
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func replay(t *testing.T, l *Log) []entry {
	t.Helper()
	var got []entry
	err := l.Replay(func(raw []byte) error {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	return got
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	return info.Size()
}

func TestAppendThenReplayInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i, name := range []string{"a", "b", "c"} {
		if err := l.Append(entry{Seq: i, Name: name}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := replay(t, openLog(t, path))
	if len(got) != 3 || got[0].Name != "a" || got[2].Seq != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestReplayEmptyFile(t *testing.T) {
	l := openLog(t, filepath.Join(t.TempDir(), "empty.log"))
	if got := replay(t, l); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}

// flakyFile 讓 Sync / Truncate 依設定失敗
type flakyFile struct {
	file
	failSync     bool
	failTruncate bool
}

func (f *flakyFile) Sync() error {
	if f.failSync {
		return errors.New("disk full")
	}
	return f.file.Sync()
}

func (f *flakyFile) Truncate(size int64) error {
	if f.failTruncate {
		return errors.New("read-only file system")
	}
	return f.file.Truncate(size)
}

func TestAppendRollsBackWhenSyncFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	l := openLog(t, path)
	if err := l.Append(entry{Seq: 0, Name: "kept"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before := fileSize(t, path)

	flaky := &flakyFile{file: l.f, failSync: true}
	l.f = flaky
	if err := l.Append(entry{Seq: 1, Name: "lost"}); err == nil {
		t.Fatal("expected sync error")
	}
	if got := fileSize(t, path); got != before {
		t.Fatalf("size after failed append = %d, want %d", got, before)
	}

	flaky.failSync = false
	if err := l.Append(entry{Seq: 2, Name: "after"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	l.Close()

	got := replay(t, openLog(t, path))
	if len(got) != 2 || got[0].Name != "kept" || got[1].Name != "after" {
		t.Fatalf("got %+v", got)
	}
}

func TestAppendRejectedAfterFailedRollback(t *testing.T) {
	l := openLog(t, filepath.Join(t.TempDir(), "wal.log"))
	flaky := &flakyFile{file: l.f, failSync: true, failTruncate: true}
	l.f = flaky

	if err := l.Append(entry{Seq: 0}); !errors.Is(err, ErrBroken) {
		t.Fatalf("expected ErrBroken, got %v", err)
	}
	flaky.failSync, flaky.failTruncate = false, false
	if err := l.Append(entry{Seq: 1}); !errors.Is(err, ErrBroken) {
		t.Fatalf("expected ErrBroken, got %v", err)
	}
}

func TestReplayTruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Append(entry{Seq: 0, Name: "a"})
	l.Append(entry{Seq: 1, Name: "b"})
	l.Close()
	complete := fileSize(t, path)

	// 模擬寫到一半當機
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, FileMode)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	f.WriteString(`{"seq":2,"na`)
	f.Close()

	reopened := openLog(t, path)
	got := replay(t, reopened)
	if len(got) != 2 || got[1].Name != "b" {
		t.Fatalf("got %+v", got)
	}
	if size := fileSize(t, path); size != complete {
		t.Fatalf("size = %d, want %d", size, complete)
	}

	if err := reopened.Append(entry{Seq: 2, Name: "c"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	reopened.Close()
	if got := replay(t, openLog(t, path)); len(got) != 3 || got[2].Name != "c" {
		t.Fatalf("got %+v", got)
	}
}

func TestReplayRejectsCorruptRecordBeforeTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	if err := os.WriteFile(path, []byte("not json\n{\"seq\":1}\n"), FileMode); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l := openLog(t, path)
	if err := l.Replay(func([]byte) error { return nil }); err == nil {
		t.Fatal("expected corrupt record error")
	}
}
