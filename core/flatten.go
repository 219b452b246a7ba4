package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldKind identifies the shape of a front-matter field value.
type FieldKind int

const (
	// FieldAbsent means the field was missing or null.
	FieldAbsent FieldKind = iota
	// FieldString is a scalar string value.
	FieldString
	// FieldInteger is a scalar integer value.
	FieldInteger
	// FieldStringList is an ordered sequence of strings.
	FieldStringList
	// FieldMapping is a nested mapping. Mappings carry no flat representation
	// and are dropped during flattening.
	FieldMapping
)

// ListJoinDelimiter joins sequence values into their flat string form.
const ListJoinDelimiter = " > "

// FieldValue is an explicitly typed front-matter value. It replaces ad hoc
// per-field coercion with one representation covering absent, string, integer
// and string-list shapes.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Int  int64
	List []string
}

// FieldValueOf converts a dynamically typed value (as produced by the YAML
// front-matter parser) into a FieldValue.
func FieldValueOf(v any) FieldValue {
	switch val := v.(type) {
	case nil:
		return FieldValue{Kind: FieldAbsent}
	case string:
		return FieldValue{Kind: FieldString, Str: val}
	case bool:
		return FieldValue{Kind: FieldString, Str: strconv.FormatBool(val)}
	case int:
		return FieldValue{Kind: FieldInteger, Int: int64(val)}
	case int64:
		return FieldValue{Kind: FieldInteger, Int: val}
	case uint64:
		return FieldValue{Kind: FieldInteger, Int: int64(val)}
	case float64:
		if val == float64(int64(val)) {
			return FieldValue{Kind: FieldInteger, Int: int64(val)}
		}
		return FieldValue{Kind: FieldString, Str: strconv.FormatFloat(val, 'f', -1, 64)}
	case []string:
		return FieldValue{Kind: FieldStringList, List: val}
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			list = append(list, FieldValueOf(item).String())
		}
		return FieldValue{Kind: FieldStringList, List: list}
	case map[string]any:
		return FieldValue{Kind: FieldMapping}
	default:
		return FieldValue{Kind: FieldString, Str: fmt.Sprintf("%v", val)}
	}
}

// IsPresent reports whether the value carries usable, non-empty content.
// Empty strings and empty lists count as absent; this is what the grouping
// required-field policy checks.
func (v FieldValue) IsPresent() bool {
	switch v.Kind {
	case FieldString:
		return v.Str != ""
	case FieldInteger:
		return true
	case FieldStringList:
		return len(v.List) > 0
	default:
		return false
	}
}

// String returns the flat string form: integers in decimal, lists joined with
// ListJoinDelimiter. Absent values and mappings stringify to "".
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldString:
		return v.Str
	case FieldInteger:
		return strconv.FormatInt(v.Int, 10)
	case FieldStringList:
		return strings.Join(v.List, ListJoinDelimiter)
	default:
		return ""
	}
}

// Flatten converts raw front-matter metadata into a flat string mapping.
// Sequences join with ListJoinDelimiter, numbers stringify, nested mappings
// are dropped entirely, and absent/null values are omitted.
func Flatten(metadata map[string]any) map[string]string {
	flat := make(map[string]string, len(metadata))
	for key, raw := range metadata {
		value := FieldValueOf(raw)
		if value.Kind == FieldMapping || value.Kind == FieldAbsent {
			continue
		}
		flat[key] = value.String()
	}
	return flat
}

// GroupKeyFields is the allow-list of metadata fields compared when deciding
// which chunks merge into one retrieval document.
var GroupKeyFields = []string{"sprint", "date", "activity", "header_path"}

// GroupKeyFor computes the grouping key for raw front-matter metadata.
// Only allow-listed fields participate; fields missing from the metadata are
// excluded from the key rather than treated as wildcards, so a chunk lacking
// a field only groups with chunks lacking that same field.
func GroupKeyFor(metadata map[string]any, allowList []string) string {
	pairs := make([]string, 0, len(allowList))
	for _, field := range allowList {
		raw, ok := metadata[field]
		if !ok {
			continue
		}
		value := FieldValueOf(raw)
		if value.Kind == FieldAbsent {
			continue
		}
		pairs = append(pairs, field+"="+value.String())
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\x1f")
}
