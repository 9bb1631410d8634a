package wal

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

func TestAppendThenPending(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(primitives.Filepath(filepath.Join(dir, "col_price.wal")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if _, err := l.Append(3, []byte("first")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.Append(4, []byte("second")); err != nil {
		t.Fatalf("append: %v", err)
	}

	pending := l.Pending()
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}
	if !bytes.Equal(pending[0].Data, []byte("first")) || pending[0].PageID != 3 {
		t.Errorf("pending[0] = %+v", pending[0])
	}
	if !bytes.Equal(pending[1].Data, []byte("second")) || pending[1].PageID != 4 {
		t.Errorf("pending[1] = %+v", pending[1])
	}
	if pending[1].LSN <= pending[0].LSN {
		t.Errorf("expected increasing LSNs, got %d then %d", pending[0].LSN, pending[1].LSN)
	}
}

func TestCommitClearsPending(t *testing.T) {
	dir := t.TempDir()
	path := primitives.Filepath(filepath.Join(dir, "col_price.wal"))
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := l.Append(1, []byte("value")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(l.Pending()) != 0 {
		t.Fatalf("expected empty log after commit, got %d records", len(l.Pending()))
	}
	l.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if len(reopened.Pending()) != 0 {
		t.Fatalf("expected reopened log to be empty, got %d records", len(reopened.Pending()))
	}
}

func TestDiscardClearsPending(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(primitives.Filepath(filepath.Join(dir, "col_price.wal")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if _, err := l.Append(1, []byte("value")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if len(l.Pending()) != 0 {
		t.Fatalf("expected empty log after discard, got %d records", len(l.Pending()))
	}
}

func TestReopenReplaysUncommittedRecords(t *testing.T) {
	dir := t.TempDir()
	path := primitives.Filepath(filepath.Join(dir, "col_price.wal"))
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.Append(2, []byte("crash-before-commit")); err != nil {
		t.Fatalf("append: %v", err)
	}
	l.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	pending := reopened.Pending()
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if pending[0].PageID != 2 || !bytes.Equal(pending[0].Data, []byte("crash-before-commit")) {
		t.Errorf("pending[0] = %+v", pending[0])
	}
}
