// Package snapshot persists periodic world snapshots as a zstd-compressed
// stream: one JSON header line for cheap inspection, then the text save
// body. Snapshots are complete worlds; restoring one needs no other files.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"colonysim/internal/persistence/save"
)

type Header struct {
	Version     int    `json:"version"`
	WorldID     string `json:"world_id"`
	Tick        uint64 `json:"tick"`
	MinuteOfDay int    `json:"minute_of_day"`
}

const Version = 1

func Write(path string, h Header, d *save.Doc) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	h.Version = Version
	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := save.Encode(bw, d); err != nil {
		return fmt.Errorf("snapshot body: %w", err)
	}
	return nil
}

func Read(path string) (Header, *save.Doc, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, nil, fmt.Errorf("snapshot header: %w", err)
	}
	d, err := save.Decode(br)
	if err != nil {
		return h, nil, fmt.Errorf("snapshot body: %w", err)
	}
	return h, d, nil
}

// PathFor builds the on-disk snapshot name for a tick.
func PathFor(dir, worldID string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%012d.sav.zst", worldID, tick))
}
