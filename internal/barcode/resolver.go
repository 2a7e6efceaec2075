package barcode

import "strings"

// DefaultDeviceCommands are configuration codes printed in scanner manuals.
// Scanning one switches the hardware mode; it is not a product.
var DefaultDeviceCommands = []string{
	"NLS0006010",
	"NLS0006000",
	"NLS0001150",
	"NLS0001160",
	"%%SpecCodeEB",
}

// Resolution is the outcome of mapping one raw scan.
type Resolution struct {
	Raw         string
	Prefix      string
	ProductName string
	Symbology   Symbology
	Skip        bool
}

// Resolver maps raw barcodes to product names. It is immutable and safe for
// concurrent use.
type Resolver struct {
	table    Table
	commands map[string]struct{}
}

// NewResolver builds a resolver over table. A nil commands slice selects
// DefaultDeviceCommands; an empty one disables skipping.
func NewResolver(table Table, commands []string) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	if commands == nil {
		commands = DefaultDeviceCommands
	}
	set := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return &Resolver{table: table.Merge(nil), commands: set}
}

// Resolve trims raw and maps it to a product. Callers reject blank input
// before resolving.
func (r *Resolver) Resolve(raw string) Resolution {
	code := strings.TrimSpace(raw)
	if _, ok := r.commands[code]; ok {
		return Resolution{Raw: code, Skip: true}
	}

	prefix := Prefix(code)
	name, ok := r.table[prefix]
	if !ok {
		name = Unknown
	}
	return Resolution{
		Raw:         code,
		Prefix:      prefix,
		ProductName: name,
		Symbology:   Classify(code),
	}
}

// Lookup returns the product name registered for prefix.
func (r *Resolver) Lookup(prefix string) (string, bool) {
	name, ok := r.table[prefix]
	return name, ok
}

// Size reports how many prefixes are registered.
func (r *Resolver) Size() int {
	return len(r.table)
}

// Prefix derives the canonical lookup key of a trimmed barcode:
// codes of 14+ characters containing a hyphen use the text before the first
// hyphen, codes of 11+ characters their first 11 characters, and anything
// shorter its first 6.
func Prefix(code string) string {
	runes := []rune(code)
	switch {
	case len(runes) >= 14 && strings.Contains(code, "-"):
		return code[:strings.Index(code, "-")]
	case len(runes) >= 11:
		return string(runes[:11])
	case len(runes) > 6:
		return string(runes[:6])
	default:
		return code
	}
}
