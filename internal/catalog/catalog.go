package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"procur/internal/types"
)

// Catalog is the vendor registry for a run. Reads are lock-free after load;
// concurrent file loads of the same path are collapsed.
type Catalog struct {
	mu      sync.RWMutex
	vendors map[string]*types.VendorProfile
	group   singleflight.Group
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{vendors: make(map[string]*types.VendorProfile)}
}

// Add registers a vendor, validating its exchange policy. A missing policy
// gets the default. Replaces any existing vendor with the same id.
func (c *Catalog) Add(v *types.VendorProfile) error {
	if v.VendorID == "" {
		return fmt.Errorf("catalog: vendor missing vendor_id")
	}
	if v.Exchange.MinStepAbs == 0 && len(v.Exchange.TermTrade) == 0 && len(v.Exchange.PaymentTrade) == 0 {
		v.Exchange = types.DefaultExchangePolicy()
	}
	if err := v.Exchange.Validate(); err != nil {
		return fmt.Errorf("catalog: vendor %s: %w", v.VendorID, err)
	}
	c.mu.Lock()
	c.vendors[v.VendorID] = v
	c.mu.Unlock()
	return nil
}

// Get returns the vendor with the given id.
func (c *Catalog) Get(vendorID string) (*types.VendorProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vendors[vendorID]
	return v, ok
}

// All returns every vendor, sorted by id.
func (c *Catalog) All() []*types.VendorProfile {
	c.mu.RLock()
	out := make([]*types.VendorProfile, 0, len(c.vendors))
	for _, v := range c.vendors {
		out = append(out, v)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out
}

// Len returns the vendor count.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vendors)
}

// LoadFile reads a JSON array of vendor profiles from disk and registers them.
// Concurrent loads of the same path share one read. Returns the number of
// vendors added.
func (c *Catalog) LoadFile(path string) (int, error) {
	n, err, _ := c.group.Do(path, func() (any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var profiles []*types.VendorProfile
		if err := json.Unmarshal(data, &profiles); err != nil {
			return 0, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
		added := 0
		for _, v := range profiles {
			if err := c.Add(v); err != nil {
				return added, err
			}
			added++
		}
		return added, nil
	})
	if err != nil {
		return 0, err
	}
	return n.(int), nil
}

// LoadSeed registers the built-in demo vendors.
func (c *Catalog) LoadSeed() error {
	for _, v := range Seed() {
		if err := c.Add(v); err != nil {
			return err
		}
	}
	return nil
}
