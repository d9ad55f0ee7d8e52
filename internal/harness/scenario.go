package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/testutil"
)

// Scenario defines one pagination walk.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection is the collection every record is created in.
	Collection string `yaml:"collection"`

	// OrderField is the default order field for fetch steps.
	// Empty means updated_at.
	OrderField string `yaml:"order_field,omitempty"`

	// PageSize is the default page size for fetch steps.
	PageSize int `yaml:"page_size"`

	// Start is the first clock reading (RFC 3339). Empty means
	// testutil.Epoch.
	Start string `yaml:"start,omitempty"`

	// Tick is the clock step per write (Go duration). Empty means 1s.
	Tick string `yaml:"tick,omitempty"`

	// Records are created first, in order, one tick apart.
	Records []RecordSeed `yaml:"records,omitempty"`

	// Generate creates numbered records after Records.
	Generate *Generate `yaml:"generate,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`
}

// RecordSeed describes a record to create.
type RecordSeed struct {
	ID    string         `yaml:"id"`
	Attrs map[string]any `yaml:"attrs,omitempty"`
}

// Generate creates Count records with IDs Prefix01, Prefix02, ...
type Generate struct {
	Count  int    `yaml:"count"`
	Prefix string `yaml:"prefix"`
}

// Step is exactly one of a fetch, a touch or a create.
type Step struct {
	// Fetch is "first", "older" or "newer". Older and newer follow the
	// cursor of the most recent successful page unless Cursor is set.
	Fetch string `yaml:"fetch,omitempty"`

	// Cursor overrides the followed cursor.
	Cursor *string `yaml:"cursor,omitempty"`

	// PageSize overrides the scenario page size for this fetch.
	PageSize *int `yaml:"page_size,omitempty"`

	// OrderField overrides the scenario order field for this fetch.
	OrderField string `yaml:"order_field,omitempty"`

	// Touch is the ID of a record whose updated_at is refreshed.
	Touch string `yaml:"touch,omitempty"`

	// Attrs replace the touched record's attrs when set.
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// Create adds a record at the current tick.
	Create *RecordSeed `yaml:"create,omitempty"`

	// Expect is checked against the outcome of a fetch.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the page a fetch step must produce.
// Unset fields are not checked.
type Expect struct {
	IDs   []string `yaml:"ids,omitempty"`
	Older *bool    `yaml:"older,omitempty"`
	Newer *bool    `yaml:"newer,omitempty"`
	Error string   `yaml:"error,omitempty"`
}

// Fetch kinds.
const (
	FetchFirst = "first"
	FetchOlder = "older"
	FetchNewer = "newer"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarioFiles returns the .yaml and .yml files under dir whose base
// name (without extension) matches the glob filter. An empty filter
// matches everything.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if s.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1")
	}
	if s.OrderField != "" {
		if _, err := record.ParseField(s.OrderField); err != nil {
			return fmt.Errorf("order_field: %w", err)
		}
	}
	if _, err := s.start(); err != nil {
		return err
	}
	if _, err := s.tick(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Generate != nil {
		if s.Generate.Count < 0 {
			return fmt.Errorf("generate.count must be non-negative")
		}
		if s.Generate.Prefix == "" {
			return fmt.Errorf("generate.prefix is required")
		}
	}

	seen := make(map[string]bool)
	for _, id := range s.ids() {
		if id == "" {
			return fmt.Errorf("record id is required")
		}
		if seen[id] {
			return fmt.Errorf("duplicate record id %q", id)
		}
		seen[id] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its kind.
func validateStep(index int, st *Step) error {
	kinds := 0
	for _, set := range []bool{st.Fetch != "", st.Touch != "", st.Create != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("steps[%d]: exactly one of fetch, touch or create is required", index)
	}

	switch {
	case st.Fetch != "":
		switch st.Fetch {
		case FetchFirst:
			if st.Cursor != nil {
				return fmt.Errorf("steps[%d]: cursor is not allowed for a first fetch", index)
			}
		case FetchOlder, FetchNewer:
		default:
			return fmt.Errorf("steps[%d]: unknown fetch %q", index, st.Fetch)
		}
		if st.Attrs != nil {
			return fmt.Errorf("steps[%d]: attrs are only allowed for touch", index)
		}
	default:
		if st.Expect != nil || st.Cursor != nil || st.PageSize != nil || st.OrderField != "" {
			return fmt.Errorf("steps[%d]: expect, cursor, page_size and order_field are only allowed for fetch", index)
		}
		if st.Create != nil && st.Attrs != nil {
			return fmt.Errorf("steps[%d]: use create.attrs instead of attrs", index)
		}
	}

	return nil
}

// ids returns every record ID the scenario creates, in creation order.
func (s *Scenario) ids() []string {
	var ids []string
	for _, r := range s.Records {
		ids = append(ids, r.ID)
	}
	if s.Generate != nil {
		for i := 1; i <= s.Generate.Count; i++ {
			ids = append(ids, fmt.Sprintf("%s%02d", s.Generate.Prefix, i))
		}
	}
	for _, st := range s.Steps {
		if st.Create != nil {
			ids = append(ids, st.Create.ID)
		}
	}
	return ids
}

func (s *Scenario) start() (time.Time, error) {
	if s.Start == "" {
		return testutil.Epoch, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("start: %w", err)
	}
	return t, nil
}

func (s *Scenario) tick() (time.Duration, error) {
	if s.Tick == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(s.Tick)
	if err != nil {
		return 0, fmt.Errorf("tick: %w", err)
	}
	if d < time.Microsecond {
		return 0, fmt.Errorf("tick must be at least 1µs, got %s", d)
	}
	return d, nil
}

func (s *Scenario) orderField() record.Field {
	if s.OrderField == "" {
		return record.FieldUpdatedAt
	}
	return record.Field(s.OrderField)
}
