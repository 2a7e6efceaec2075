package barcode

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unknown is the product name reported for prefixes missing from the table.
const Unknown = "Unknown"

// Table maps a canonical barcode prefix to a product display name.
type Table map[string]string

var builtin = Table{
	"71013487523": "Alex Silver",
	"71011154523": "Newport Silver",
	"71011153523": "Newport White and Pink",
	"71011156522": "Newport Copper",
	"71011155523": "Newport White and Gold",
	"71075750522": "Newport Gunmetal",
	"71014181553": "Newport Blue",
	"71011151522": "Newport Ebony and Gold",
	"110481":      "Brighton Natural",
	"210477":      "Silver Rose",
	"210889":      "Classic Ebony Gold",
	"110649":      "#430",
	"110128":      "Masterpiece",
	"410204":      "In God's Care",
	"210923":      "Dartmouth Blue",
	"210654":      "Roseboro",
	"210921":      "Dartmouth Bronze",
	"210953":      "Kessens Bronze",
	"110411":      "Nordon Pine",
	"110664":      "#435",
	"210937":      "Kessens Grey",
}

// DefaultTable returns a copy of the built-in product catalog.
func DefaultTable() Table {
	return builtin.Merge(nil)
}

// Merge returns a new table holding t overlaid with other.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

type catalogFile struct {
	Products []struct {
		Prefix string `yaml:"prefix"`
		Name   string `yaml:"name"`
	} `yaml:"products"`
}

// LoadCatalog reads additional prefix mappings from a YAML file:
//
//	products:
//	  - prefix: "210477"
//	    name: Silver Rose
func LoadCatalog(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(raw []byte) (Table, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	out := make(Table, len(doc.Products))
	for i, p := range doc.Products {
		prefix := strings.TrimSpace(p.Prefix)
		name := strings.TrimSpace(p.Name)
		if prefix == "" || name == "" {
			return nil, fmt.Errorf("catalog entry %d: prefix and name are required", i)
		}
		if Prefix(prefix) != prefix {
			return nil, fmt.Errorf("catalog entry %d: %q is not a canonical prefix", i, prefix)
		}
		out[prefix] = name
	}
	return out, nil
}
