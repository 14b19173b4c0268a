// Package indexdb maintains a secondary SQLite index over the run's
// artifacts: per-tick summaries, drained events and written snapshots. The
// JSONL logs and snapshot files remain the source of truth; this index only
// makes them queryable. Writes go through a single background goroutine so
// the simulation never blocks on the database.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"colonysim/internal/persistence/log"
	"colonysim/internal/persistence/snapshot"
	"colonysim/internal/sim/catalogs"
	"colonysim/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     log.TickRecord
	event    log.EventRecord
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick        uint64
	Path        string
	MinuteOfDay int
	Agents      int
	Zones       int
	Stations    int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Generous buffer so event bursts never stall the sim loop.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only workload; NORMAL durability is fine for a
	// rebuildable secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			minute_of_day INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			queue_len INTEGER NOT NULL,
			ground_cells INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			agent_id INTEGER NOT NULL,
			job TEXT NOT NULL,
			ax INTEGER NOT NULL,
			ay INTEGER NOT NULL,
			bx INTEGER NOT NULL,
			by INTEGER NOT NULL,
			msg TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_agent_tick ON events(agent_id, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			minute_of_day INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			zones INTEGER NOT NULL,
			stations INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick enqueues a tick summary. Drops the record if the indexer falls
// behind; the JSONL logs remain the source of truth.
func (s *SQLiteIndex) WriteTick(rec log.TickRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqTick, tick: rec}:
	default:
	}
}

func (s *SQLiteIndex) WriteEvent(rec log.EventRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqEvent, event: rec}:
	default:
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, h snapshot.Header, agents, zones, stations int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:        h.Tick,
		Path:        path,
		MinuteOfDay: h.MinuteOfDay,
		Agents:      agents,
		Zones:       zones,
		Stations:    stations,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// LatestSnapshot returns the newest recorded snapshot path, or ok=false when
// the index has none. Intended for boot-time restore, before the writer has
// traffic.
func (s *SQLiteIndex) LatestSnapshot() (path string, tick uint64, ok bool, err error) {
	row := s.db.QueryRow(`SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`)
	switch err = row.Scan(&path, &tick); err {
	case nil:
		return path, tick, true, nil
	case sql.ErrNoRows:
		return "", 0, false, nil
	default:
		return "", 0, false, err
	}
}

// UpsertCatalogs records the loaded catalog digests and active tuning so a
// later reader can tell which definitions produced this run.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	upsert := `INSERT INTO catalogs(name,digest,updated_at) VALUES(?,?,?)
		ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, updated_at=excluded.updated_at`
	if _, err := tx.Exec(upsert, "items", cats.Items.Digest, now); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(upsert, "recipes", cats.Recipes.Digest, now); err != nil {
		_ = tx.Rollback()
		return err
	}
	metaUpsert := `INSERT INTO meta(key,value) VALUES(?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`
	if _, err := tx.Exec(metaUpsert, "protocol_version", tune.ProtocolVersion); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 1000
		maxWait     = 2 * time.Second
	)

	begin := func() bool {
		if tx != nil {
			return true
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return false
		}
		tx = txx
		opCount = 0
		return true
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}

	flush := time.NewTicker(maxWait)
	defer flush.Stop()

	for {
		select {
		case r, open := <-s.ch:
			if !open {
				commit()
				return
			}
			if !begin() {
				continue
			}
			s.apply(tx, r)
			opCount++
			if opCount >= commitEvery {
				commit()
			}
		case <-flush.C:
			commit()
		}
	}
}

func (s *SQLiteIndex) apply(tx *sql.Tx, r req) {
	switch r.kind {
	case reqTick:
		_, _ = tx.Exec(`INSERT OR REPLACE INTO ticks(tick,minute_of_day,agents,queue_len,ground_cells)
			VALUES(?,?,?,?,?)`,
			r.tick.Tick, r.tick.MinuteOfDay, r.tick.Agents, r.tick.QueueLen, r.tick.GroundCells)
	case reqEvent:
		_, _ = tx.Exec(`INSERT OR REPLACE INTO events(tick,seq,kind,agent_id,job,ax,ay,bx,by,msg)
			VALUES(?,?,?,?,?,?,?,?,?,?)`,
			r.event.Tick, r.event.Seq, r.event.Kind, r.event.AgentID, r.event.Job,
			r.event.A[0], r.event.A[1], r.event.B[0], r.event.B[1], r.event.Msg)
	case reqSnapshot:
		_, _ = tx.Exec(`INSERT OR REPLACE INTO snapshots(tick,path,minute_of_day,agents,zones,stations)
			VALUES(?,?,?,?,?,?)`,
			r.snapshot.Tick, r.snapshot.Path, r.snapshot.MinuteOfDay,
			r.snapshot.Agents, r.snapshot.Zones, r.snapshot.Stations)
	}
}
