// Package log writes append-only JSONL streams, zstd-compressed and rotated
// hourly. The event logger drains the simulation's replay log to disk so a
// run can be reconstructed without keeping the whole history in memory.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"colonysim/internal/sim/events"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	p := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// EventRecord is the on-disk form of one bus event.
type EventRecord struct {
	Tick    uint64 `json:"tick"`
	Seq     uint64 `json:"seq"`
	Kind    string `json:"kind"`
	AgentID int    `json:"agent_id,omitempty"`
	Job     string `json:"job,omitempty"`
	A       [2]int `json:"a"`
	B       [2]int `json:"b,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// EventLogger drains bus replay entries to a compressed JSONL stream.
type EventLogger struct {
	w       *JSONLZstdWriter
	lastSeq uint64
	primed  bool
}

func NewEventLogger(worldDir string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "events"), "events")}
}

// Drain writes every replay entry newer than the last drained sequence.
// Callers typically follow up with bus.ClearReplay.
func (l *EventLogger) Drain(tick uint64, entries []events.ReplayEntry) error {
	for _, e := range entries {
		if l.primed && e.Seq <= l.lastSeq {
			continue
		}
		rec := EventRecord{
			Tick:    tick,
			Seq:     e.Seq,
			Kind:    e.Event.Kind.String(),
			AgentID: e.Event.AgentID,
			Job:     e.Event.Job.String(),
			A:       [2]int{e.Event.A.X, e.Event.A.Y},
			B:       [2]int{e.Event.B.X, e.Event.B.Y},
			Msg:     e.Event.Msg,
		}
		if err := l.w.Write(rec); err != nil {
			return err
		}
		l.lastSeq = e.Seq
		l.primed = true
	}
	return nil
}

func (l *EventLogger) Close() error { return l.w.Close() }

// TickRecord is a coarse per-tick summary for dashboards and replay tools.
type TickRecord struct {
	Tick        uint64 `json:"tick"`
	MinuteOfDay int    `json:"minute_of_day"`
	Agents      int    `json:"agents"`
	QueueLen    int    `json:"queue_len"`
	GroundCells int    `json:"ground_cells"`
}

type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(rec TickRecord) error { return l.w.Write(rec) }
func (l *TickLogger) Close() error                   { return l.w.Close() }
