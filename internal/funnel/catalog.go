package funnel

import (
	"strings"

	"trialfunnel/pkg"
)

// Catalog holds the full set of trials, loaded once at process start and
// read-only afterwards.  It is safe for concurrent use by many sessions.
type Catalog struct {
	trials map[string]pkg.Trial
	order  []string // load order, kept for stable listings
}

// NewCatalog builds a catalog from loaded trial records.  Later duplicates
// of an id replace earlier ones.
func NewCatalog(trials []pkg.Trial) *Catalog {
	c := &Catalog{trials: make(map[string]pkg.Trial, len(trials))}
	for _, t := range trials {
		if _, ok := c.trials[t.ID]; !ok {
			c.order = append(c.order, t.ID)
		}
		c.trials[t.ID] = t
	}
	return c
}

// Get returns the trial for an id.
func (c *Catalog) Get(id string) (pkg.Trial, bool) {
	t, ok := c.trials[id]
	return t, ok
}

// Len returns the number of trials in the catalog.
func (c *Catalog) Len() int { return len(c.order) }

// FilterByCondition returns the ids of trials whose condition description
// contains the given text as a case-insensitive substring.  That literal
// containment is the whole matching semantics: no tokenization, no fuzz.
// An empty result is not an error.
func (c *Catalog) FilterByCondition(condition string) []string {
	needle := strings.ToLower(strings.TrimSpace(condition))
	var ids []string
	for _, id := range c.order {
		if strings.Contains(strings.ToLower(c.trials[id].Conditions), needle) {
			ids = append(ids, id)
		}
	}
	return ids
}
