package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultNestedCategory is the parent category that holds the child buckets
// when the category config does not name one.
const DefaultNestedCategory = "Canned / Bottled"

// ExpectedCategories is the admin-managed taxonomy the Square catalog is
// checked against before a menu is built.
type ExpectedCategories struct {
	ParentCategories []string `json:"parentCategories" yaml:"parentCategories"`
	ChildCategories  []string `json:"childCategories" yaml:"childCategories"`
	ParentName       *string  `json:"parentName" yaml:"parentName"`
}

// Names returns parent names followed by child names.
func (e ExpectedCategories) Names() []string {
	out := make([]string, 0, len(e.ParentCategories)+len(e.ChildCategories))
	out = append(out, e.ParentCategories...)
	out = append(out, e.ChildCategories...)
	return out
}

// Trimmed returns a copy with surrounding spaces removed from every name and
// blank names dropped.
func (e ExpectedCategories) Trimmed() ExpectedCategories {
	out := ExpectedCategories{
		ParentCategories: trimNames(e.ParentCategories),
		ChildCategories:  trimNames(e.ChildCategories),
	}
	if e.ParentName != nil {
		if name := strings.TrimSpace(*e.ParentName); name != "" {
			out.ParentName = &name
		}
	}
	return out
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (e ExpectedCategories) IsEmpty() bool {
	return len(e.ParentCategories) == 0 && len(e.ChildCategories) == 0
}

// Check rejects configs that can never produce a menu.
func (e ExpectedCategories) Check() error {
	if len(e.ParentCategories) == 0 {
		return errors.New("at least one parent category is required")
	}
	seen := make(map[string]struct{}, len(e.ParentCategories)+len(e.ChildCategories))
	for _, name := range e.Names() {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return errors.New("category names must not be empty")
		}
		if _, ok := seen[trimmed]; ok {
			return fmt.Errorf("category %q is listed more than once", trimmed)
		}
		seen[trimmed] = struct{}{}
	}
	if e.ParentName != nil && strings.TrimSpace(*e.ParentName) != "" {
		if !containsString(e.ParentCategories, strings.TrimSpace(*e.ParentName)) {
			return fmt.Errorf("parent name %q is not a parent category", *e.ParentName)
		}
	}
	return nil
}

type ProcessedItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Price       string   `json:"price,omitempty"`
	BottlePrice string   `json:"bottlePrice,omitempty"`
	ABV         string   `json:"abv,omitempty"`
	City        string   `json:"city,omitempty"`
	Varieties   string   `json:"varieties,omitempty"`
	CategoryIDs []string `json:"categoryIds"`
	LocationIDs []string `json:"locationIds"`
	InStock     bool     `json:"inStock"`
}

type CategoryWithItems struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Items           []ProcessedItem     `json:"items"`
	ChildCategories []CategoryWithItems `json:"childCategories"`
}

// MenuSection is one top-level menu entry. Category is set for the nesting
// category; every other section carries Items.
type MenuSection struct {
	Name     string
	Items    []ProcessedItem
	Category *CategoryWithItems
}

// MenuStructure is an ordered map of category name to section. It encodes as
// a JSON object whose keys keep the section order.
type MenuStructure struct {
	Sections []MenuSection
}

func (m MenuStructure) Keys() []string {
	out := make([]string, 0, len(m.Sections))
	for _, s := range m.Sections {
		out = append(out, s.Name)
	}
	return out
}

func (m MenuStructure) Section(name string) (MenuSection, bool) {
	for _, s := range m.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return MenuSection{}, false
}

// Items returns every item on the menu, nested children included, in menu order.
func (m MenuStructure) Items() []ProcessedItem {
	var out []ProcessedItem
	for _, s := range m.Sections {
		if s.Category == nil {
			out = append(out, s.Items...)
			continue
		}
		out = append(out, s.Category.Items...)
		for _, child := range s.Category.ChildCategories {
			out = append(out, child.Items...)
		}
	}
	return out
}

func (m MenuStructure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range m.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value []byte
		if s.Category != nil {
			value, err = json.Marshal(s.Category)
		} else {
			items := s.Items
			if items == nil {
				items = []ProcessedItem{}
			}
			value, err = json.Marshal(items)
		}
		if err != nil {
			return nil, fmt.Errorf("encode menu section %q: %w", s.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *MenuStructure) UnmarshalJSON(data []byte) error {
	m.Sections = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("menu must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("menu key must be a string")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode menu section %q: %w", name, err)
		}
		raw = bytes.TrimSpace(raw)

		section := MenuSection{Name: name}
		switch {
		case len(raw) > 0 && raw[0] == '[':
			if err := json.Unmarshal(raw, &section.Items); err != nil {
				return fmt.Errorf("decode menu section %q: %w", name, err)
			}
		case len(raw) > 0 && raw[0] == '{':
			var category CategoryWithItems
			if err := json.Unmarshal(raw, &category); err != nil {
				return fmt.Errorf("decode menu section %q: %w", name, err)
			}
			section.Category = &category
		case bytes.Equal(raw, []byte("null")):
			section.Items = []ProcessedItem{}
		default:
			return fmt.Errorf("menu section %q must be a list or a category", name)
		}
		m.Sections = append(m.Sections, section)
	}

	_, err = dec.Token()
	return err
}

// Rules parameterizes routing and layout for one venue.
type Rules struct {
	// BarLocationID is the Square location whose stock decides what is shown.
	BarLocationID string
	// CannedBottledID is the category id that marks packaged beer.
	CannedBottledID string
	// NestedCategory is used when ExpectedCategories.ParentName is unset.
	NestedCategory string
	// CategoryOrder overrides ExpectedCategories.ParentCategories as the display order.
	CategoryOrder []string
	// ExcludedItems never appear on the menu.
	ExcludedItems []string
	// ChildExceptionItems are routed to child buckets without the canned id.
	ChildExceptionItems []string
	// BottlePriceVariation enables bottlePrice from a second "Bottle" variation.
	BottlePriceVariation bool
}

// Bucket is a category and the items routed to it during one run.
type Bucket struct {
	ID    string
	Name  string
	Items []ProcessedItem
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
