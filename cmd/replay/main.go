// replay inspects colonyd's on-disk artifacts: it prints snapshot headers
// and streams the compressed JSONL event and tick logs back as text, with
// optional tick-range and agent filters.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	persistlog "colonysim/internal/persistence/log"
	"colonysim/internal/persistence/snapshot"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .sav.zst snapshot to inspect")
		eventsDir = flag.String("events", "", "dir containing events-*.jsonl.zst")
		ticksDir  = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		fromTick  = flag.Uint64("from_tick", 0, "skip records before this tick")
		toTick    = flag.Uint64("to_tick", 0, "stop after this tick (0 = no limit)")
		agentID   = flag.Int("agent", 0, "only events for this agent id (0 = all)")
	)
	flag.Parse()

	if *snapPath == "" && *eventsDir == "" && *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -snapshot, -events or -ticks")
		os.Exit(2)
	}

	if *snapPath != "" {
		h, doc, err := snapshot.Read(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d world=%s tick=%d minute=%d size=%dx%d agents=%d ground=%d zones=%d stations=%d\n",
			h.Version, h.WorldID, h.Tick, h.MinuteOfDay,
			doc.Width, doc.Height, len(doc.Agents), len(doc.Ground), len(doc.Zones), len(doc.Stations))
	}

	if *eventsDir != "" {
		err := scanLogs(*eventsDir, "events-", func(line []byte) error {
			var rec persistlog.EventRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return err
			}
			if rec.Tick < *fromTick || (*toTick != 0 && rec.Tick > *toTick) {
				return nil
			}
			if *agentID != 0 && rec.AgentID != *agentID {
				return nil
			}
			fmt.Printf("t=%d seq=%d %s agent=%d job=%s a=%v b=%v %s\n",
				rec.Tick, rec.Seq, rec.Kind, rec.AgentID, rec.Job, rec.A, rec.B, rec.Msg)
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "events:", err)
			os.Exit(1)
		}
	}

	if *ticksDir != "" {
		err := scanLogs(*ticksDir, "ticks-", func(line []byte) error {
			var rec persistlog.TickRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return err
			}
			if rec.Tick < *fromTick || (*toTick != 0 && rec.Tick > *toTick) {
				return nil
			}
			fmt.Printf("t=%d minute=%d agents=%d queue=%d ground=%d\n",
				rec.Tick, rec.MinuteOfDay, rec.Agents, rec.QueueLen, rec.GroundCells)
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "ticks:", err)
			os.Exit(1)
		}
	}
}

func scanLogs(dir, prefix string, fn func(line []byte) error) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := scanFile(filepath.Join(dir, name), fn); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func scanFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}
