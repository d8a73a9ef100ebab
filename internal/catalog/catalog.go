package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/redis"
)

// documentName is the key-value document the learned mappings persist under.
const documentName = "item_mappings"

const documentVersion = "1.0"

// Observation is one (item number, display name) pair seen in source data.
type Observation struct {
	ItemNbr  int
	ItemName string
}

// Stats summarizes catalog size.
type Stats struct {
	Items      int `json:"total_items"`
	Categories int `json:"total_categories"`
	Classes    int `json:"total_classes"`
}

// Catalog maps item/category/class codes to display names. Learned item
// names are additive only: an existing binding is never overwritten.
// Reads and writes may happen from concurrent prediction runs.
type Catalog struct {
	mu         sync.RWMutex
	items      map[int]string
	categories map[string]string
	classes    map[int]string
}

// New returns a catalog seeded with the default mappings.
func New() *Catalog {
	c := &Catalog{
		items:      make(map[int]string, len(defaultItemNames)),
		categories: make(map[string]string, len(defaultCategoryNames)),
		classes:    make(map[int]string, len(defaultClassNames)),
	}
	for k, v := range defaultItemNames {
		c.items[k] = v
	}
	for k, v := range defaultCategoryNames {
		c.categories[k] = v
	}
	for k, v := range defaultClassNames {
		c.classes[k] = v
	}
	return c
}

// Learn adds item-name bindings for item numbers the catalog does not know
// yet and returns how many were added. Existing bindings are kept as-is.
func (c *Catalog) Learn(observations []Observation) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	learned := 0
	for _, obs := range observations {
		name := strings.TrimSpace(obs.ItemName)
		if obs.ItemNbr == 0 || name == "" {
			continue
		}
		if _, known := c.items[obs.ItemNbr]; known {
			continue
		}
		c.items[obs.ItemNbr] = name
		learned++
	}
	return learned
}

// ItemName returns the display name for an item number, synthesizing
// "Item #<id>" when unknown.
func (c *Catalog) ItemName(itemNbr int) string {
	c.mu.RLock()
	name, ok := c.items[itemNbr]
	c.mu.RUnlock()
	if ok {
		return name
	}
	return fmt.Sprintf("Item #%d", itemNbr)
}

// CategoryName returns the curated name for a raw category code, falling
// back to a humanized form of the code itself.
func (c *Catalog) CategoryName(code string) string {
	c.mu.RLock()
	name, ok := c.categories[code]
	c.mu.RUnlock()
	if ok {
		return name
	}
	return humanize(code)
}

// ClassName returns the display name for an item class, synthesizing
// "Class <code>" when unknown.
func (c *Catalog) ClassName(classCode int) string {
	c.mu.RLock()
	name, ok := c.classes[classCode]
	c.mu.RUnlock()
	if ok {
		return name
	}
	return fmt.Sprintf("Class %d", classCode)
}

// SetItemName adds or replaces a curated item mapping.
func (c *Catalog) SetItemName(itemNbr int, name string) {
	c.mu.Lock()
	c.items[itemNbr] = name
	c.mu.Unlock()
}

// SetCategoryName adds or replaces a curated category mapping.
func (c *Catalog) SetCategoryName(code, name string) {
	c.mu.Lock()
	c.categories[code] = name
	c.mu.Unlock()
}

// SetClassName adds or replaces a curated class mapping.
func (c *Catalog) SetClassName(classCode int, name string) {
	c.mu.Lock()
	c.classes[classCode] = name
	c.mu.Unlock()
}

// Stats reports how many mappings the catalog currently holds.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Items:      len(c.items),
		Categories: len(c.categories),
		Classes:    len(c.classes),
	}
}

// Colors returns n chart colors drawn cyclically from the fixed palette.
func Colors(n int) []string {
	if n <= 0 {
		return []string{}
	}
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		colors[i] = chartPalette[i%len(chartPalette)]
	}
	return colors
}

type document struct {
	Items       map[string]string `json:"items"`
	Categories  map[string]string `json:"categories"`
	Classes     map[string]string `json:"classes"`
	GeneratedAt string            `json:"generated_at"`
	Version     string            `json:"version"`
}

// Load replaces the catalog contents with the persisted document. A missing
// document is not an error; the seeded defaults stay in place.
func (c *Catalog) Load(ctx context.Context, store redis.DocumentStore) error {
	raw, err := store.Get(ctx, store.CatalogKey(documentName))
	if err != nil {
		if redis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("fetching catalog document: %w", err)
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("decoding catalog document: %w", err)
	}

	items := make(map[int]string, len(doc.Items))
	for k, v := range doc.Items {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid item key %q in catalog document: %w", k, err)
		}
		items[id] = v
	}
	classes := make(map[int]string, len(doc.Classes))
	for k, v := range doc.Classes {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid class key %q in catalog document: %w", k, err)
		}
		classes[id] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(items) > 0 {
		c.items = items
	}
	if len(doc.Categories) > 0 {
		c.categories = doc.Categories
	}
	if len(classes) > 0 {
		c.classes = classes
	}
	return nil
}

// Save persists the current mappings as a JSON document, retrying transient
// store failures with capped exponential backoff.
func (c *Catalog) Save(ctx context.Context, store redis.DocumentStore) error {
	c.mu.RLock()
	doc := document{
		Items:       make(map[string]string, len(c.items)),
		Categories:  make(map[string]string, len(c.categories)),
		Classes:     make(map[string]string, len(c.classes)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Version:     documentVersion,
	}
	for k, v := range c.items {
		doc.Items[strconv.Itoa(k)] = v
	}
	for k, v := range c.categories {
		doc.Categories[k] = v
	}
	for k, v := range c.classes {
		doc.Classes[strconv.Itoa(k)] = v
	}
	c.mu.RUnlock()

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding catalog document: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := store.Set(ctx, store.CatalogKey(documentName), string(payload), 0); err != nil {
			return retry.RetryableError(fmt.Errorf("storing catalog document: %w", err))
		}
		return nil
	})
}

// humanize turns a raw code like "GROCERY_I" into "Grocery I".
func humanize(code string) string {
	cleaned := strings.ReplaceAll(code, "_", " ")
	words := strings.Fields(cleaned)
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
