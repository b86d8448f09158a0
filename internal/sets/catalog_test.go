package sets

import (
	"os"
	"path/filepath"
	"testing"
)

func testPool() map[int][]Option {
	return map[int][]Option{
		1999: {
			{Value: "Base Set", Label: "Base Set (EN)"},
			{Value: "Base Set Shadowless", Label: "Base Set Shadowless (EN)"},
			{Value: "Jungle", Label: "Jungle (EN)"},
			{Value: "Fossil", Label: "Fossil (EN)"},
		},
		2000: {
			{Value: "Base Set 2", Label: "Base Set 2 (EN)"},
			{Value: "Team Rocket", Label: "Team Rocket (EN)"},
		},
		2021: {
			{Value: "Evolving Skies", Label: "Evolving Skies (EN)"},
			{Value: "Celebrations", Label: "Celebrations (EN)"},
		},
	}
}

func TestDefaultStatic(t *testing.T) {
	static := DefaultStatic()
	if len(static) == 0 {
		t.Fatal("Expected built-in set catalog to be non-empty")
	}

	base := static[1999]
	if len(base) == 0 || base[0].Value != "Base Set" || base[0].Label != BaseSetLabel {
		t.Errorf("Expected 1999 to start with Base Set, got %+v", base)
	}
}

func TestCleanSetName(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"Pokemon Base Set", "base set"},
		{"Pokemon Trading Card Game Jungle", "jungle"},
		{"Pokemon Card Game Fossil", "fossil"},
		{"Pokemon TCG Evolving Skies", "evolving skies"},
		{"Pokemon Japanese Expansion Pack", "expansion pack"},
		{"  Pokemon   Team  Rocket ", "team rocket"},
		{"Pokemon Trading Card Game", "trading card game"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanSetName(tt.raw); got != tt.expected {
			t.Errorf("CleanSetName(%q): expected %q, got %q", tt.raw, tt.expected, got)
		}
	}
}

func TestReconcile(t *testing.T) {
	catalog, err := NewCatalog(testPool(), "")
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	tests := []struct {
		name      string
		raw       string
		year      int
		wantValue string
		wantOK    bool
	}{
		{"game special case", "Pokemon Trading Card Game", 1999, "Base Set", true},
		{"exact label", "Jungle (EN)", 1999, "Jungle", true},
		{"exact value", "Pokemon Fossil", 1999, "Fossil", true},
		{"partial prefers base set in 1999", "Pokemon Base Set Unlimited", 1999, "Base Set", true},
		{"partial shadowless", "Shadowless", 1999, "Base Set Shadowless", true},
		{"language marker", "Pokemon Japanese Team Rocket", 2000, "Team Rocket", true},
		{"unknown year searches everything", "Pokemon Evolving Skies", 2030, "Evolving Skies", true},
		{"no year searches everything", "Celebrations", 0, "Celebrations", true},
		{"no match", "Pokemon Obsidian Flames", 1999, "", false},
		{"empty name", "", 1999, "", false},
		{"game outside 1999 is not forced", "Pokemon Trading Card Game", 2000, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := catalog.Reconcile(tt.raw, tt.year)
			if ok != tt.wantOK {
				t.Fatalf("Reconcile(%q, %d): expected ok=%v, got %v (%+v)", tt.raw, tt.year, tt.wantOK, ok, got)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Reconcile(%q, %d): expected %q, got %q", tt.raw, tt.year, tt.wantValue, got.Value)
			}
		})
	}
}

func TestReconcile_PartialOrdering(t *testing.T) {
	stormfront := Option{Value: "Stormfront", Label: "Stormfront (EN)"}
	plasma := Option{Value: "Plasma Storm", Label: "Plasma Storm (EN)"}
	valueOnly := Option{Value: "Storm Collection", Label: "SC"}

	tests := []struct {
		name     string
		pool     []Option
		expected string
	}{
		{"exact value wins", []Option{stormfront, {Value: "Storm", Label: "Storm"}, plasma}, "Storm"},
		{"label containment beats value containment", []Option{valueOnly, plasma}, "Plasma Storm"},
		{"closest label length wins", []Option{plasma, stormfront}, "Stormfront"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reconcile(tt.pool, "storm", 2011)
			if !ok || got.Value != tt.expected {
				t.Errorf("Expected %q, got %+v (ok=%v)", tt.expected, got, ok)
			}
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	catalog, err := NewDefaultCatalog("")
	if err != nil {
		t.Fatalf("NewDefaultCatalog failed: %v", err)
	}

	for _, year := range catalog.Years() {
		for _, opt := range catalog.ForYear(year) {
			got, ok := catalog.Reconcile(opt.Label, year)
			if !ok || got != opt {
				t.Errorf("Reconcile(%q, %d): expected %+v, got %+v (ok=%v)", opt.Label, year, opt, got, ok)
			}
		}
	}
}

func TestAddCustomSet(t *testing.T) {
	overlayPath := filepath.Join(t.TempDir(), "custom_sets.json")
	catalog, err := NewCatalog(testPool(), overlayPath)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	added, err := catalog.AddCustomSet(2021, Option{Value: "Trainer Gallery", Label: "Trainer Gallery (EN)"})
	if err != nil || !added {
		t.Fatalf("Expected set to be added, got added=%v err=%v", added, err)
	}

	// Same value again is a no-op
	added, err = catalog.AddCustomSet(2021, Option{Value: "Trainer Gallery", Label: "Other label"})
	if err != nil || added {
		t.Errorf("Expected duplicate value to be skipped, got added=%v err=%v", added, err)
	}

	// Value comparison is case-sensitive
	added, _ = catalog.AddCustomSet(2021, Option{Value: "trainer gallery"})
	if !added {
		t.Error("Expected differently-cased value to be added")
	}

	// Static values count as present
	added, _ = catalog.AddCustomSet(2021, Option{Value: "Celebrations"})
	if added {
		t.Error("Expected static set value to be treated as present")
	}

	opts := catalog.ForYear(2021)
	if len(opts) != 4 {
		t.Fatalf("Expected 4 sets for 2021, got %d: %+v", len(opts), opts)
	}
	if opts[3].Label != "trainer gallery" {
		t.Errorf("Expected label to default to value, got %q", opts[3].Label)
	}

	// Overlay survives a reload
	reloaded, err := NewCatalog(testPool(), overlayPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	custom := reloaded.CustomSets()
	if len(custom[2021]) != 2 || custom[2021][0].Value != "Trainer Gallery" {
		t.Errorf("Expected persisted overlay, got %+v", custom)
	}

	got, ok := reloaded.Reconcile("Pokemon Trainer Gallery", 2021)
	if !ok || got.Value != "Trainer Gallery" {
		t.Errorf("Expected custom set to take part in reconciliation, got %+v", got)
	}
}

func TestAddCustomSet_NewYear(t *testing.T) {
	catalog, _ := NewCatalog(testPool(), "")

	if _, err := catalog.AddCustomSet(2031, Option{Value: "Future Set"}); err != nil {
		t.Fatalf("AddCustomSet failed: %v", err)
	}
	years := catalog.Years()
	if years[len(years)-1] != 2031 {
		t.Errorf("Expected 2031 in years, got %v", years)
	}
}

func TestAddCustomSet_Validation(t *testing.T) {
	catalog, _ := NewCatalog(testPool(), "")
	if _, err := catalog.AddCustomSet(2021, Option{Label: "No value"}); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestAddCustomSet_PersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := NewCatalog(testPool(), filepath.Join(blocker, "custom.json"))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	if _, err := catalog.AddCustomSet(2021, Option{Value: "Lost"}); err == nil {
		t.Fatal("Expected persistence error")
	}
	if len(catalog.CustomSets()) != 0 {
		t.Errorf("Expected overlay to be rolled back, got %+v", catalog.CustomSets())
	}
}

func TestNewCatalog_CorruptOverlay(t *testing.T) {
	overlayPath := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(overlayPath, []byte("[not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCatalog(testPool(), overlayPath); err == nil {
		t.Error("Expected error for corrupt overlay")
	}
}
