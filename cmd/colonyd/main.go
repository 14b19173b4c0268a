// colonyd runs one colony world at a fixed tick rate and exposes it to
// loopback observers over websocket. Ticks and events stream to compressed
// JSONL logs, periodic snapshots go to the data directory, and a SQLite
// index keeps both queryable.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"colonysim/internal/persistence/indexdb"
	persistlog "colonysim/internal/persistence/log"
	"colonysim/internal/persistence/snapshot"
	"colonysim/internal/protocol"
	"colonysim/internal/sim/catalogs"
	"colonysim/internal/sim/events"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/jobs"
	"colonysim/internal/sim/tuning"
	"colonysim/internal/sim/world"
	"colonysim/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8700", "http listen address for observers")
		worldID    = flag.String("world", "colony_1", "world id")
		width      = flag.Int("width", 64, "world width (fresh worlds only)")
		height     = flag.Int("height", 48, "world height (fresh worlds only)")
		seed       = flag.Int64("seed", 1337, "terrain seed (fresh worlds only)")
		colonists  = flag.Int("colonists", 3, "initial colonists (fresh worlds only)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the SQLite run index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "resume from the newest snapshot when -snapshot is empty")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[colonyd] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	snapDir := filepath.Join(worldDir, "snapshots")

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Fatalf("record catalogs: %v", err)
		}
	}

	w, err := bootWorld(logger, idx, cats, tune, bootParams{
		SnapPath:   strings.TrimSpace(*snapPath),
		LoadLatest: *loadLatest,
		SnapDir:    snapDir,
		WorldID:    *worldID,
		Width:      *width,
		Height:     *height,
		Seed:       *seed,
		Colonists:  *colonists,
	})
	if err != nil {
		logger.Fatalf("boot world: %v", err)
	}

	evlog := persistlog.NewEventLogger(worldDir)
	defer evlog.Close()
	ticklog := persistlog.NewTickLogger(worldDir)
	defer ticklog.Close()

	obs := observer.NewServer(logger)
	obs.SetBootstrap(bootstrapFor(w, cats, tune, *worldID))

	mux := http.NewServeMux()
	mux.HandleFunc("/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/observer/ws", obs.WSHandler())
	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("observer http listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	ctx, cancel := signalContext()
	defer cancel()

	jq := jobs.NewQueue()
	tick := time.NewTicker(time.Duration(tune.TickSeconds * float64(time.Second)))
	defer tick.Stop()

	logger.Printf("world %s running: %dx%d, %d agents, tick %.2fs",
		*worldID, w.Grid().Width(), w.Grid().Height(), len(w.Agents()), tune.TickSeconds)

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-tick.C:
			w.Tick(jq)

			entries := w.Events().Replay()
			if err := evlog.Drain(w.TickCount(), entries); err != nil {
				logger.Printf("event log: %v", err)
			}
			rec := persistlog.TickRecord{
				Tick:        w.TickCount(),
				MinuteOfDay: w.MinuteOfDay(),
				Agents:      len(w.Agents()),
				QueueLen:    jq.Len(),
				GroundCells: w.Ground().Len(),
			}
			if err := ticklog.WriteTick(rec); err != nil {
				logger.Printf("tick log: %v", err)
			}
			idx.WriteTick(rec)
			for _, e := range entries {
				idx.WriteEvent(eventRecord(w.TickCount(), e))
			}

			obs.Broadcast(tickMsgFor(w, entries))
			w.Events().ClearReplay()

			if tune.SnapshotEveryTicks > 0 && w.TickCount()%uint64(tune.SnapshotEveryTicks) == 0 {
				writeSnapshot(logger, idx, w, snapDir, *worldID)
				obs.SetBootstrap(bootstrapFor(w, cats, tune, *worldID))
			}
		}
	}

	logger.Printf("shutting down at tick %d", w.TickCount())
	writeSnapshot(logger, idx, w, snapDir, *worldID)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
}

type bootParams struct {
	SnapPath   string
	LoadLatest bool
	SnapDir    string
	WorldID    string
	Width      int
	Height     int
	Seed       int64
	Colonists  int
}

func bootWorld(logger *log.Logger, idx *indexdb.SQLiteIndex, cats *catalogs.Catalogs, tune tuning.Tuning, p bootParams) (*world.World, error) {
	recipes, err := cats.RecipeSet()
	if err != nil {
		return nil, err
	}

	snapToLoad := p.SnapPath
	if snapToLoad == "" && p.LoadLatest {
		snapToLoad = latestSnapshot(idx, p.SnapDir)
	}

	if snapToLoad != "" {
		h, doc, err := snapshot.Read(snapToLoad)
		if err != nil {
			return nil, err
		}
		w := world.New(doc.Width, doc.Height)
		w.SetRecipes(recipes)
		w.ApplyTuning(tune)
		w.Import(doc)
		logger.Printf("resumed %s from %s (tick %d)", h.WorldID, snapToLoad, h.Tick)
		return w, nil
	}

	w := world.New(p.Width, p.Height)
	w.SetRecipes(recipes)
	w.ApplyTuning(tune)
	w.SeedTerrain(p.Seed)

	cx, cy := p.Width/2, p.Height/2
	for i := 0; i < p.Colonists; i++ {
		w.SpawnColonist(grid.Cell{X: cx - 2 - i, Y: cy + 2})
	}
	w.AddStockpileRect(grid.Cell{X: cx - 2, Y: cy - 4}, grid.Cell{X: cx + 2, Y: cy - 2}, 5, nil)

	logger.Printf("fresh world: seed %d", p.Seed)
	return w, nil
}

// latestSnapshot prefers the index; with the index disabled or empty it
// falls back to scanning the snapshot directory.
func latestSnapshot(idx *indexdb.SQLiteIndex, snapDir string) string {
	if idx != nil {
		if path, _, ok, err := idx.LatestSnapshot(); err == nil && ok {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	matches, err := filepath.Glob(filepath.Join(snapDir, "*.sav.zst"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

func writeSnapshot(logger *log.Logger, idx *indexdb.SQLiteIndex, w *world.World, snapDir, worldID string) {
	h := snapshot.Header{
		WorldID:     worldID,
		Tick:        w.TickCount(),
		MinuteOfDay: w.MinuteOfDay(),
	}
	path := snapshot.PathFor(snapDir, worldID, w.TickCount())
	doc := w.Export()
	if err := snapshot.Write(path, h, doc); err != nil {
		logger.Printf("snapshot: %v", err)
		return
	}
	idx.RecordSnapshot(path, h, len(doc.Agents), len(doc.Zones), len(doc.Stations))
	logger.Printf("snapshot written: %s", path)
}

func bootstrapFor(w *world.World, cats *catalogs.Catalogs, tune tuning.Tuning, worldID string) protocol.BootstrapResponse {
	return protocol.BootstrapResponse{
		ProtocolVersion: protocol.Version,
		WorldID:         worldID,
		Tick:            w.TickCount(),
		MinuteOfDay:     w.MinuteOfDay(),
		WorldParams: protocol.WorldParams{
			Width:       w.Grid().Width(),
			Height:      w.Grid().Height(),
			TickSeconds: tune.TickSeconds,
		},
		Catalogs: protocol.Catalogs{
			ItemsDigest:   cats.Items.Digest,
			RecipesDigest: cats.Recipes.Digest,
		},
	}
}

func tickMsgFor(w *world.World, entries []events.ReplayEntry) protocol.TickMsg {
	msg := protocol.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: protocol.Version,
		Tick:            w.TickCount(),
		MinuteOfDay:     w.MinuteOfDay(),
		Agents:          make([]protocol.AgentState, 0, len(w.Agents())),
		ASCII:           w.RenderASCII(0, 0, -1, -1),
	}
	for _, a := range w.Agents() {
		st := protocol.AgentState{
			ID:     a.ID,
			Pos:    [2]int{a.Pos.X, a.Pos.Y},
			State:  a.State.String(),
			Hunger: a.Hunger,
			Rest:   a.Rest,
			Morale: a.Morale,
		}
		if a.Job != nil {
			st.Job = a.Job.Kind.String()
		}
		msg.Agents = append(msg.Agents, st)
	}
	for _, e := range entries {
		msg.Events = append(msg.Events, protocol.EventMsg{
			Seq:     e.Seq,
			Kind:    e.Event.Kind.String(),
			AgentID: e.Event.AgentID,
			Job:     e.Event.Job.String(),
			A:       [2]int{e.Event.A.X, e.Event.A.Y},
			B:       [2]int{e.Event.B.X, e.Event.B.Y},
			Msg:     e.Event.Msg,
		})
	}
	return msg
}

func eventRecord(tick uint64, e events.ReplayEntry) persistlog.EventRecord {
	return persistlog.EventRecord{
		Tick:    tick,
		Seq:     e.Seq,
		Kind:    e.Event.Kind.String(),
		AgentID: e.Event.AgentID,
		Job:     e.Event.Job.String(),
		A:       [2]int{e.Event.A.X, e.Event.A.Y},
		B:       [2]int{e.Event.B.X, e.Event.B.Y},
		Msg:     e.Event.Msg,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
