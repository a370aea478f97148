package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"procur/internal/types"
)

// exemplarRoundWindow bounds how many trailing rounds an exemplar renders.
const exemplarRoundWindow = 3

// defaultCacheSize bounds the rendered-exemplar cache.
const defaultCacheSize = 256

// Index is the scenario-tag retrieval index over finished negotiation
// memories. Similarity is Jaccard over tag sets; rendered exemplar bundles are
// cached per query.
type Index struct {
	mu       sync.RWMutex
	memories map[string]types.NegotiationMemory
	byTag    map[string]map[string]struct{}
	cache    *lru.Cache[string, []string]
}

// NewIndex creates an empty retrieval index. cacheSize <= 0 uses the default.
func NewIndex(cacheSize int) (*Index, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("retrieval cache: %w", err)
	}
	return &Index{
		memories: make(map[string]types.NegotiationMemory),
		byTag:    make(map[string]map[string]struct{}),
		cache:    cache,
	}, nil
}

func memoryKey(m types.NegotiationMemory) string {
	return m.RequestID + "|" + m.VendorID
}

// Add indexes one finished negotiation memory. Re-adding the same
// (request, vendor) replaces the previous record.
func (x *Index) Add(m types.NegotiationMemory) {
	key := memoryKey(m)
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.memories[key]; ok {
		for _, tag := range old.ScenarioTags {
			delete(x.byTag[tag], key)
		}
	}
	x.memories[key] = m
	for _, tag := range m.ScenarioTags {
		set, ok := x.byTag[tag]
		if !ok {
			set = make(map[string]struct{})
			x.byTag[tag] = set
		}
		set[key] = struct{}{}
	}
	x.cache.Purge()
}

// Len returns the number of indexed memories.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.memories)
}

func jaccard(query []string, other []string) float64 {
	if len(query) == 0 || len(other) == 0 {
		return 0
	}
	qset := make(map[string]struct{}, len(query))
	for _, t := range query {
		qset[t] = struct{}{}
	}
	inter := 0
	oset := make(map[string]struct{}, len(other))
	for _, t := range other {
		if _, dup := oset[t]; dup {
			continue
		}
		oset[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	union := len(qset) + len(oset) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

type scored struct {
	key   string
	score float64
}

// TopK returns the k most tag-similar memories, Jaccard descending with key
// ties broken lexically. Memories sharing no tag with the query never match.
func (x *Index) TopK(tags []string, k int) []types.NegotiationMemory {
	if k <= 0 {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	// Candidate set: anything sharing at least one tag.
	candidates := make(map[string]struct{})
	for _, tag := range tags {
		for key := range x.byTag[tag] {
			candidates[key] = struct{}{}
		}
	}

	ranked := make([]scored, 0, len(candidates))
	for key := range candidates {
		s := jaccard(tags, x.memories[key].ScenarioTags)
		if s > 0 {
			ranked = append(ranked, scored{key, s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].key < ranked[j].key
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]types.NegotiationMemory, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, x.memories[r.key])
	}
	return out
}

// Exemplars renders the top-k matches as compact negotiation contexts for the
// proposal generator. Results are cached per (tags, k) query until the next Add.
func (x *Index) Exemplars(tags []string, k int) []string {
	cacheKey := fmt.Sprintf("%d|%s", k, strings.Join(sortedCopy(tags), ","))
	if cached, ok := x.cache.Get(cacheKey); ok {
		return cached
	}

	var out []string
	for _, m := range x.TopK(tags, k) {
		out = append(out, renderExemplar(m))
	}
	x.cache.Add(cacheKey, out)
	return out
}

func sortedCopy(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}

// renderExemplar compacts a memory to one line: outcome, savings, and the
// last few rounds with strategy, decision, and selected price.
func renderExemplar(m types.NegotiationMemory) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "outcome=%s savings=%.2f rounds=%d", m.Outcome, m.Savings, len(m.Rounds))

	rounds := m.Rounds
	if len(rounds) > exemplarRoundWindow {
		rounds = rounds[len(rounds)-exemplarRoundWindow:]
	}
	for _, r := range rounds {
		fmt.Fprintf(&sb, " | r%d %s %s @%.2f u=%.2f",
			r.Round, r.Strategy, r.Decision, r.Selected.Offer.UnitPrice, r.Selected.BuyerUtility)
	}
	return sb.String()
}
