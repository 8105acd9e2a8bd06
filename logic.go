package main

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	testSessionSize   = 25
	reviewSessionSize = 10
	weakPointLimit    = 10
	distractorCount   = 3
)

// newRand returns a seeded source; nil seeds from the clock.
func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Catalog is a read-only snapshot of the item table, ordered by ID.
type Catalog struct {
	items []Item
	byID  map[uint]int
}

func NewCatalog(items []Item) *Catalog {
	out := append([]Item(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	byID := make(map[uint]int, len(out))
	for i, it := range out {
		byID[it.ID] = i
	}
	return &Catalog{items: out, byID: byID}
}

func (c *Catalog) Len() int { return len(c.items) }

// Items returns a copy so callers may shuffle it freely.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) Get(id uint) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Ledger is a snapshot of mastery records taken when a selection starts.
type Ledger []MasteryRecord

// SelectQuestionSet picks the ordered items for a new session. It never
// mutates the catalog or the ledger.
func SelectQuestionSet(mode Mode, catalog *Catalog, ledger Ledger, r *rand.Rand) ([]Item, error) {
	switch mode {
	case ModeTest:
		return drawItems(catalog.Items(), testSessionSize, r), nil
	case ModeReview:
		ranked := rankWeakPoints(ledger)
		out := make([]Item, 0, reviewSessionSize)
		for _, rec := range ranked {
			if len(out) == reviewSessionSize {
				break
			}
			if it, ok := catalog.Get(rec.ItemID); ok {
				out = append(out, it)
			}
		}
		if len(out) == 0 {
			return nil, ErrEmptyReviewSet
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func drawItems(items []Item, count int, r *rand.Rand) []Item {
	out := append([]Item(nil), items...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if count > len(out) {
		count = len(out)
	}
	return out[:count]
}

// rankWeakPoints keeps records with at least one miss and orders them by
// incorrect ratio descending, then by item ID ascending.
func rankWeakPoints(records []MasteryRecord) []MasteryRecord {
	out := make([]MasteryRecord, 0, len(records))
	for _, rec := range records {
		if rec.IncorrectCount > 0 {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weakerThan(out[i], out[j])
	})
	return out
}

// weakerThan compares incorrect ratios by cross-multiplication so equal
// ratios such as 1/2 and 2/4 tie exactly.
func weakerThan(a, b MasteryRecord) bool {
	lhs := int64(a.IncorrectCount) * int64(b.Attempts())
	rhs := int64(b.IncorrectCount) * int64(a.Attempts())
	if lhs != rhs {
		return lhs > rhs
	}
	return a.ItemID < b.ItemID
}

type Choice struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Reading string `json:"reading"`
}

// BuildChoices returns the correct item plus up to three distractors in
// random order. Distractors never share a name with the correct item or
// with each other.
func BuildChoices(correct Item, catalog *Catalog, r *rand.Rand) []Choice {
	pool := make([]Item, 0, catalog.Len())
	for _, it := range catalog.items {
		if it.ID == correct.ID || it.Name == correct.Name {
			continue
		}
		pool = append(pool, it)
	}
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	picked := []Item{correct}
	seen := map[string]bool{correct.Name: true}
	for _, it := range pool {
		if len(picked) == distractorCount+1 {
			break
		}
		if seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		picked = append(picked, it)
	}
	r.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	out := make([]Choice, 0, len(picked))
	for _, it := range picked {
		out = append(out, Choice{ID: it.ID, Name: it.Name, Reading: it.Reading})
	}
	return out
}

// isCorrectAnswer is an exact, case-sensitive comparison.
func isCorrectAnswer(selected, canonical string) bool {
	return selected == canonical
}

func computeScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100.0 / float64(total)))
}
