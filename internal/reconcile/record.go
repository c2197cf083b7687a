package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"ecomigrate/internal/catalog"
)

// Record is a fully specified process identity. It serializes with the
// ecoSpold2 mapping labels.
type Record struct {
	ActivityName string `json:"name"`
	Geography    string `json:"location"`
	ProductName  string `json:"reference product"`
	Unit         string `json:"unit"`
}

// Key returns the catalog identity of the record.
func (r Record) Key() catalog.Key {
	return catalog.Key{
		ActivityName: r.ActivityName,
		Geography:    r.Geography,
		ProductName:  r.ProductName,
		Unit:         r.Unit,
	}
}

func (r Record) String() string { return r.Key().String() }

// Delta is a partial record: nil fields are left untouched by Merge.
type Delta struct {
	ActivityName *string
	Geography    *string
	ProductName  *string
	Unit         *string
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return d.ActivityName == nil && d.Geography == nil && d.ProductName == nil && d.Unit == nil
}

// Merge returns base with every present delta field applied. base is not
// modified.
func Merge(base Record, d Delta) Record {
	out := base
	if d.ActivityName != nil {
		out.ActivityName = *d.ActivityName
	}
	if d.Geography != nil {
		out.Geography = *d.Geography
	}
	if d.ProductName != nil {
		out.ProductName = *d.ProductName
	}
	if d.Unit != nil {
		out.Unit = *d.Unit
	}
	return out
}

func (d Delta) String() string {
	var parts []string
	add := func(label string, v *string) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%q", label, *v))
		}
	}
	add(catalog.FieldActivityName, d.ActivityName)
	add(catalog.FieldGeography, d.Geography)
	add(catalog.FieldProductName, d.ProductName)
	add(catalog.FieldUnit, d.Unit)
	return "{" + strings.Join(parts, " ") + "}"
}

// DeltaFromFields builds a delta from a field map using either label set.
func DeltaFromFields(fields map[string]string) (Delta, error) {
	var d Delta
	labels := make([]string, 0, len(fields))
	for label := range fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		value := fields[label]
		canonical, ok := catalog.CanonicalField(label)
		if !ok {
			return Delta{}, fmt.Errorf("unknown field %q", label)
		}
		v := value
		switch canonical {
		case catalog.FieldActivityName:
			d.ActivityName = &v
		case catalog.FieldGeography:
			d.Geography = &v
		case catalog.FieldProductName:
			d.ProductName = &v
		case catalog.FieldUnit:
			d.Unit = &v
		}
	}
	return d, nil
}

// RecordFromFields builds a complete record from a field map using either
// label set. Every key field must be present and non-empty.
func RecordFromFields(fields map[string]string) (Record, error) {
	d, err := DeltaFromFields(fields)
	if err != nil {
		return Record{}, err
	}
	rec := Merge(Record{}, d)
	if !rec.Key().Complete() {
		return Record{}, fmt.Errorf("incomplete record %s", d)
	}
	return rec, nil
}

// Set returns a pointer to s, for building deltas inline.
func Set(s string) *string { return &s }
