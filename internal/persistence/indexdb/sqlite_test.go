package indexdb

import (
	"path/filepath"
	"testing"

	"colonysim/internal/persistence/log"
	"colonysim/internal/persistence/snapshot"
)

func TestFreshIndexHasNoSnapshots(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()
	if _, _, ok, err := idx.LatestSnapshot(); err != nil || ok {
		t.Fatalf("fresh index must have no snapshots: ok=%v err=%v", ok, err)
	}
	idx.WriteTick(log.TickRecord{Tick: 1, MinuteOfDay: 481, Agents: 3})
}

func TestLatestSnapshotAfterReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	idx.RecordSnapshot("/data/w-000000000100.sav.zst", snapshot.Header{Tick: 100}, 1, 0, 0)
	idx.RecordSnapshot("/data/w-000000000900.sav.zst", snapshot.Header{Tick: 900}, 1, 0, 0)
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	path, tick, ok, err := idx.LatestSnapshot()
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if tick != 900 || path != "/data/w-000000000900.sav.zst" {
		t.Fatalf("latest = %s @%d", path, tick)
	}
}

func TestWriteAfterCloseIsNoop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Must not panic on the closed channel.
	idx.WriteTick(log.TickRecord{Tick: 1})
	idx.WriteEvent(log.EventRecord{Tick: 1})
	idx.RecordSnapshot("x", snapshot.Header{}, 0, 0, 0)
}
