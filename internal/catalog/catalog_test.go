package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"procur/internal/types"
)

func TestAdd_DefaultsExchangePolicy(t *testing.T) {
	c := New()
	v := &types.VendorProfile{
		VendorID:   "bare",
		Name:       "Bare Vendor",
		Category:   "crm",
		PriceTiers: map[int]float64{1: 100},
	}
	if err := c.Add(v); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := c.Get("bare")
	if !ok {
		t.Fatal("vendor not registered")
	}
	if got.Exchange.MinStepAbs <= 0 || got.Exchange.MaxRounds <= 0 {
		t.Fatalf("exchange policy not defaulted: %+v", got.Exchange)
	}
}

func TestAdd_RejectsMissingID(t *testing.T) {
	if err := New().Add(&types.VendorProfile{Name: "anonymous"}); err == nil {
		t.Fatal("want error for vendor without id")
	}
}

func TestAll_SortedByID(t *testing.T) {
	c := New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := c.Add(&types.VendorProfile{VendorID: id}); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}
	all := c.All()
	if len(all) != 3 || c.Len() != 3 {
		t.Fatalf("len = %d/%d, want 3", len(all), c.Len())
	}
	if all[0].VendorID != "alpha" || all[1].VendorID != "mid" || all[2].VendorID != "zeta" {
		t.Fatalf("order = %s, %s, %s", all[0].VendorID, all[1].VendorID, all[2].VendorID)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendors.json")
	payload := `[
  {"vendor_id": "file-a", "name": "File A", "category": "crm", "price_tiers": {"1": 500}},
  {"vendor_id": "file-b", "name": "File B", "category": "crm", "price_tiers": {"1": 450}}
]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New()
	n, err := c.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 2 || c.Len() != 2 {
		t.Fatalf("loaded %d/%d, want 2", n, c.Len())
	}
	if _, ok := c.Get("file-b"); !ok {
		t.Fatal("file-b missing")
	}

	if _, err := c.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoadSeed(t *testing.T) {
	c := New()
	if err := c.LoadSeed(); err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if c.Len() != 5 {
		t.Fatalf("seed count = %d, want 5", c.Len())
	}
	apex, ok := c.Get("crm-apex")
	if !ok {
		t.Fatal("crm-apex missing from seed")
	}
	if apex.PriceFloor() != 900 {
		t.Fatalf("apex floor = %.2f, want 900", apex.PriceFloor())
	}
	if apex.Exchange.MaxRounds != 8 {
		t.Fatalf("apex max rounds = %d", apex.Exchange.MaxRounds)
	}
}
