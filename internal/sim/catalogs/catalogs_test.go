package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

func TestLoadShippedConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load configs: %v", err)
	}
	if len(c.Items.Defs) == 0 || c.Items.Digest == "" {
		t.Fatalf("items catalog empty or undigested: %+v", c.Items)
	}
	if _, ok := c.Recipes.ByID["cook_meal"]; !ok {
		t.Fatalf("shipped recipes missing cook_meal: %v", c.Recipes.ByID)
	}

	set, err := c.RecipeSet()
	if err != nil {
		t.Fatalf("recipe set: %v", err)
	}
	kitchen := set[buildings.Kitchen]
	if len(kitchen) != 1 || kitchen[0].JobKind != jobs.Cook {
		t.Fatalf("kitchen recipes = %+v", kitchen)
	}
	if kitchen[0].Inputs[0].ID != items.RawFood || kitchen[0].Outputs[0].ID != items.Meal {
		t.Fatalf("cook_meal io = %+v", kitchen[0])
	}
}

func TestLoadRejectsUnknownItem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.json", `[{"id":"Unobtainium","kind":"MATERIAL"}]`)
	writeFile(t, dir, "recipes.json", `[]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("unknown item id must fail the load")
	}
}

func TestLoadRejectsUnknownStation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.json", `[{"id":"Log","kind":"MATERIAL"}]`)
	writeFile(t, dir, "recipes.json", `[{"recipe_id":"x","station":"Disco","time_ticks":1}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("unknown station must fail the load")
	}
}

func TestRecipeSetOrderIsStable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.json", `[{"id":"Log","kind":"MATERIAL"},{"id":"Plank","kind":"MATERIAL"}]`)
	writeFile(t, dir, "recipes.json", `[
		{"recipe_id":"planks_b","station":"Sawmill","inputs":[{"item":"Log","count":1}],"outputs":[{"item":"Plank","count":2}],"time_ticks":100},
		{"recipe_id":"planks_a","station":"Sawmill","inputs":[{"item":"Log","count":1}],"outputs":[{"item":"Plank","count":1}],"time_ticks":120},
		{"recipe_id":"planks_c","station":"Sawmill","inputs":[{"item":"Log","count":2}],"outputs":[{"item":"Plank","count":3}],"time_ticks":140}
	]`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []string{"planks_a", "planks_b", "planks_c"}
	for i := 0; i < 20; i++ {
		set, err := c.RecipeSet()
		if err != nil {
			t.Fatalf("recipe set: %v", err)
		}
		sawmill := set[buildings.Sawmill]
		if len(sawmill) != len(want) {
			t.Fatalf("sawmill recipes = %+v", sawmill)
		}
		for j, rec := range sawmill {
			if rec.Name != want[j] {
				t.Fatalf("iteration %d: sawmill order = %v, want %v", i, names(sawmill), want)
			}
		}
	}
}

func names(recs []buildings.Recipe) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
