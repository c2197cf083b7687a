package catalog

import (
	"fmt"
	"strings"
)

// Field labels used by ecoSpold-style records (change report, patches, loader).
const (
	FieldActivityName = "activity_name"
	FieldGeography    = "geography"
	FieldProductName  = "product_name"
	FieldUnit         = "unit"
)

// Field labels used by the output mapping format.
const (
	LabelName             = "name"
	LabelLocation         = "location"
	LabelReferenceProduct = "reference product"
	LabelUnit             = "unit"
)

// Key is the identity of a process in one release. Two entries are the same
// process iff all four fields match exactly.
type Key struct {
	ActivityName string
	Geography    string
	ProductName  string
	Unit         string
}

// WithGeography returns a copy of k with its geography replaced.
func (k Key) WithGeography(geo string) Key {
	k.Geography = geo
	return k
}

// Complete reports whether every key field is populated.
func (k Key) Complete() bool {
	return k.ActivityName != "" && k.Geography != "" && k.ProductName != "" && k.Unit != ""
}

func (k Key) String() string {
	return fmt.Sprintf("%s | %s | %s | %s", k.ActivityName, k.Geography, k.ProductName, k.Unit)
}

// KeyFromFields builds a key from either label set. Output labels win when a
// "reference product" field is present.
func KeyFromFields(fields map[string]string) Key {
	if _, ok := fields[LabelReferenceProduct]; ok {
		return Key{
			ActivityName: fields[LabelName],
			Geography:    fields[LabelLocation],
			ProductName:  fields[LabelReferenceProduct],
			Unit:         fields[LabelUnit],
		}
	}
	return Key{
		ActivityName: fields[FieldActivityName],
		Geography:    fields[FieldGeography],
		ProductName:  fields[FieldProductName],
		Unit:         fields[FieldUnit],
	}
}

// CanonicalField maps either label set onto the ecoSpold-style field name.
// Unknown labels return "" and false.
func CanonicalField(label string) (string, bool) {
	switch strings.TrimSpace(label) {
	case FieldActivityName, LabelName:
		return FieldActivityName, true
	case FieldGeography, LabelLocation:
		return FieldGeography, true
	case FieldProductName, LabelReferenceProduct:
		return FieldProductName, true
	case FieldUnit:
		return FieldUnit, true
	}
	return "", false
}
