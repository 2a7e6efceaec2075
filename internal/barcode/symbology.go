package barcode

import "unicode/utf8"

// Symbology is the barcode family inferred from code length.
type Symbology string

const (
	EAN8    Symbology = "EAN-8"
	UPCA    Symbology = "UPC-A"
	EAN13   Symbology = "EAN-13"
	GTIN14  Symbology = "GTIN-14"
	Code128 Symbology = "CODE-128"
)

// Classify reports the symbology of a trimmed code.
func Classify(code string) Symbology {
	switch utf8.RuneCountInString(code) {
	case 8:
		return EAN8
	case 12:
		return UPCA
	case 13:
		return EAN13
	case 14:
		return GTIN14
	default:
		return Code128
	}
}
