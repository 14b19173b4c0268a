// Package catalogs loads the item and recipe definitions from the configs
// directory. Raw file digests are kept so observers and snapshots can detect
// catalog drift between a save and the binary that wrote it.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

type Catalogs struct {
	Items   ItemCatalog
	Recipes RecipeCatalog
}

type ItemCatalog struct {
	Defs   map[string]ItemDef
	Digest string
}

type ItemDef struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // "MATERIAL","FOOD","KNOWLEDGE","TOOL"
	EdibleHP int    `json:"edible_hp,omitempty"`
}

type RecipeCatalog struct {
	ByID   map[string]RecipeDef
	Digest string
}

type RecipeDef struct {
	RecipeID  string      `json:"recipe_id"`
	Station   string      `json:"station"`
	Inputs    []ItemCount `json:"inputs"`
	Outputs   []ItemCount `json:"outputs"`
	TimeTicks int         `json:"time_ticks"`
	JobKind   string      `json:"job_kind"`
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, ok := items.Parse(d.ID); !ok {
			return fmt.Errorf("items.json: unknown item %q", d.ID)
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByID = map[string]RecipeDef{}
	for _, r := range defs {
		if r.RecipeID == "" {
			return fmt.Errorf("recipes.json: empty recipe_id")
		}
		if _, ok := parseStation(r.Station); !ok {
			return fmt.Errorf("recipes.json: %s: unknown station %q", r.RecipeID, r.Station)
		}
		out.ByID[r.RecipeID] = r
	}
	return nil
}

func parseStation(name string) (buildings.Type, bool) {
	switch name {
	case "Sawmill":
		return buildings.Sawmill, true
	case "Kitchen":
		return buildings.Kitchen, true
	case "ResearchBench":
		return buildings.ResearchBench, true
	case "Forge":
		return buildings.Forge, true
	}
	return buildings.None, false
}

func parseJobKind(name string) jobs.Kind {
	switch name {
	case "Cook":
		return jobs.Cook
	case "Research":
		return jobs.Research
	default:
		return jobs.Craft
	}
}

// RecipeSet converts the catalog into the runtime recipe table the building
// manager is constructed with. Recipes are added in recipe-id order so the
// per-station slices do not depend on map iteration. Unknown items were
// already rejected at load.
func (c *Catalogs) RecipeSet() (buildings.RecipeSet, error) {
	ids := make([]string, 0, len(c.Recipes.ByID))
	for id := range c.Recipes.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := buildings.RecipeSet{}
	for _, id := range ids {
		r := c.Recipes.ByID[id]
		station, _ := parseStation(r.Station)
		rec := buildings.Recipe{
			Name:      r.RecipeID,
			WorkTicks: r.TimeTicks,
			JobKind:   parseJobKind(r.JobKind),
		}
		for _, in := range r.Inputs {
			id, ok := items.Parse(in.Item)
			if !ok {
				return nil, fmt.Errorf("recipe %s: unknown input %q", r.RecipeID, in.Item)
			}
			rec.Inputs = append(rec.Inputs, items.Stack{ID: id, Qty: in.Count})
		}
		for _, outc := range r.Outputs {
			id, ok := items.Parse(outc.Item)
			if !ok {
				return nil, fmt.Errorf("recipe %s: unknown output %q", r.RecipeID, outc.Item)
			}
			rec.Outputs = append(rec.Outputs, items.Stack{ID: id, Qty: outc.Count})
		}
		set[station] = append(set[station], rec)
	}
	return set, nil
}
