package suggest

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Priority orders categories before their score does.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func (p *Priority) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParsePriority(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Priority) MarshalYAML() (any, error) {
	return p.String(), nil
}

type Category struct {
	Name         string   `yaml:"name"`
	Priority     Priority `yaml:"priority"`
	Keywords     []string `yaml:"keywords"`
	ContextWords []string `yaml:"context_words"`
	Items        []string `yaml:"items"`
}

type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// SeasonOf maps a month to its northern-hemisphere season.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// Catalog is the data behind the local scorer.
type Catalog struct {
	Categories      []Category          `yaml:"categories"`
	Seasonal        map[Season][]string `yaml:"seasonal"`
	OutdoorTriggers []string            `yaml:"outdoor_triggers"`
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var defaultCatalog = mustParseCatalog(defaultCatalogYAML)

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("suggest: built-in catalog: %v", err))
	}
	return c
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog.clone()
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.lower()
	return &c, nil
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the default.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d: missing name", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("category %q: duplicate name", cat.Name)
		}
		seen[cat.Name] = true
		if cat.Priority == 0 {
			return fmt.Errorf("category %q: missing priority", cat.Name)
		}
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %q: no keywords", cat.Name)
		}
	}
	return nil
}

// lower folds matching vocabulary so scoring can compare against a lowercased title.
func (c *Catalog) lower() {
	for i := range c.Categories {
		c.Categories[i].Keywords = lowerAll(c.Categories[i].Keywords)
		c.Categories[i].ContextWords = lowerAll(c.Categories[i].ContextWords)
	}
	c.OutdoorTriggers = lowerAll(c.OutdoorTriggers)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Categories:      make([]Category, len(c.Categories)),
		Seasonal:        make(map[Season][]string, len(c.Seasonal)),
		OutdoorTriggers: append([]string(nil), c.OutdoorTriggers...),
	}
	for i, cat := range c.Categories {
		cat.Keywords = append([]string(nil), cat.Keywords...)
		cat.ContextWords = append([]string(nil), cat.ContextWords...)
		cat.Items = append([]string(nil), cat.Items...)
		out.Categories[i] = cat
	}
	for season, items := range c.Seasonal {
		out.Seasonal[season] = append([]string(nil), items...)
	}
	return out
}
