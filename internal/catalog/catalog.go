// Package catalog holds the ordered list of named queries a report runs.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joacominatel/queryreport/internal/results"
	"github.com/spf13/viper"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is an ordered set of report sections.
type Catalog struct {
	Title       string    `mapstructure:"title"`
	Description string    `mapstructure:"description"`
	Sections    []Section `mapstructure:"sections"`
}

// Section groups entries under a banner.
type Section struct {
	Title   string  `mapstructure:"title"`
	Entries []Entry `mapstructure:"queries"`
}

// Entry is one named query. A nil Limit shows every row.
type Entry struct {
	Name  string `mapstructure:"name"`
	SQL   string `mapstructure:"sql"`
	Limit *int   `mapstructure:"limit"`
}

// DisplayLimit converts the entry's limit for the renderer.
func (e Entry) DisplayLimit() results.Limit {
	if e.Limit == nil {
		return results.NoLimit()
	}
	return results.LimitTo(*e.Limit)
}

// Len returns the number of entries across all sections.
func (c *Catalog) Len() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Entries)
	}
	return n
}

// ErrInvalid describes the first problem found by Validate.
type ErrInvalid struct {
	Section string
	Entry   string
	Reason  string
}

func (e *ErrInvalid) Error() string {
	switch {
	case e.Entry != "":
		return fmt.Sprintf("invalid catalog: section %q, entry %q: %s", e.Section, e.Entry, e.Reason)
	case e.Section != "":
		return fmt.Sprintf("invalid catalog: section %q: %s", e.Section, e.Reason)
	default:
		return "invalid catalog: " + e.Reason
	}
}

// Validate checks that every entry can be executed.
func (c *Catalog) Validate() error {
	if c.Len() == 0 {
		return &ErrInvalid{Reason: "no queries"}
	}
	for si, s := range c.Sections {
		for ei, e := range s.Entries {
			switch {
			case e.Name == "":
				return &ErrInvalid{Section: s.Title, Entry: fmt.Sprintf("#%d", ei+1), Reason: "missing name"}
			case e.SQL == "":
				return &ErrInvalid{Section: s.Title, Entry: e.Name, Reason: "missing sql"}
			case e.Limit != nil && *e.Limit < 0:
				return &ErrInvalid{Section: s.Title, Entry: e.Name, Reason: "negative limit"}
			}
		}
		if s.Title == "" {
			return &ErrInvalid{Section: fmt.Sprintf("#%d", si+1), Reason: "missing title"}
		}
	}
	return nil
}

// Parse reads a YAML catalog.
func Parse(r io.Reader) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c := &Catalog{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Default returns the built-in e-commerce catalog.
func Default() (*Catalog, error) {
	c, err := Parse(bytes.NewReader(defaultCatalog))
	if err != nil {
		return nil, errors.Join(errors.New("built-in catalog"), err)
	}
	return c, nil
}
