package logging

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are printed first, in this order, under an INFO or WARN
// header line.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldErrorHint,
	FieldImpact,
	FieldSource,
	FieldTarget,
	"did_you_mean",
	FieldDatabase,
	FieldSheet,
	FieldFile,
	FieldLine,
	"error",
	"replace",
	"disaggregate",
	"delete",
	"warnings",
	"datasets",
	"flows",
	"rows",
	"pairs",
	"cache_hit",
	"destination",
}

// selectInfoFields returns formatted info-level fields and a count of hidden
// entries. includeDebug lets debug-only keys through.
func selectInfoFields(attrs []kv, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	take := func(idx int) {
		used[idx] = true
		key := attrs[idx].key
		if skipInfoKey(key) {
			return
		}
		if !includeDebug && isDebugOnlyKey(key) {
			hidden++
			return
		}
		val := formatValueForKey(key, attrs[idx].value)
		if !includeDebug && len(val) > 160 && key != "error" && key != "did_you_mean" {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			take(idx)
			break
		}
	}
	for idx := range attrs {
		if !used[idx] {
			take(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	if strings.HasSuffix(key, "_duration") && v.Kind() == slog.KindDuration {
		return v.Duration().Round(1e6).String()
	}
	if v.Kind() == slog.KindString {
		return v.String()
	}
	value := formatValue(v)
	if key == "error" && len(value) > 240 {
		value = value[:240] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldRunID, FieldStage, FieldSourceVersion, FieldTargetVersion:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "dataset_file", "delta", "side":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case "did_you_mean":
		return "Did you mean"
	case "cache_hit":
		return "Cache Hit"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	return cases.Title(language.English).String(strings.Join(parts, " "))
}

func attrValue(attrs []kv, key string) string {
	for _, kv := range attrs {
		if kv.key == key {
			return attrString(kv.value)
		}
	}
	return ""
}
