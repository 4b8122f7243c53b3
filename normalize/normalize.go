// Package normalize coerces loosely-typed analysis results from the backend
// into the two canonical shapes the views consume: a flat mapping of named
// sections to renderable text, or a list of categorized extraction records.
//
// The backend owns the result shape and changes it freely; every function
// here must produce renderable output for any input and never fail as a
// whole. Formatting problems are isolated to the offending key.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MuthuAjay/contracts-v3/model"
)

// sectionNames maps backend result keys to display section names. Keys not
// listed pass through under their own name.
var sectionNames = map[string]string{
	"summary":        model.SectionReview,
	"key_terms":      model.SectionKeyTerms,
	"key_provisions": model.SectionKeyTerms,
	"obligations":    model.SectionObligations,
	"parties":        model.SectionParties,
}

// Sections converts an arbitrary analysis result into the canonical sections
// mapping. The four standard keys are always present, defaulting to empty
// strings. Already-canonical input (all string values under display names)
// passes through unchanged.
func Sections(raw any) model.Sections {
	out := model.Sections{}

	switch v := raw.(type) {
	case nil:
		// fall through to standard-key fill
	case string:
		out[model.SectionReview] = v
	case map[string]any:
		for key, val := range v {
			out[sectionName(key)] = flattenOrRaw(val)
		}
	case model.Sections:
		for key, val := range v {
			out[sectionName(key)] = val
		}
	case map[string]string:
		for key, val := range v {
			out[sectionName(key)] = val
		}
	default:
		// Arrays and scalars at the top level have no section names of
		// their own; everything lands under Contract Review.
		out[model.SectionReview] = flattenOrRaw(v)
	}

	for _, name := range model.StandardSections() {
		if _, ok := out[name]; !ok {
			out[name] = ""
		}
	}

	return out
}

func sectionName(key string) string {
	if mapped, ok := sectionNames[key]; ok {
		return mapped
	}
	return key
}

// flattenOrRaw renders one section value as text. A formatting failure is
// isolated to this key: the value falls back to preformatted raw text.
func flattenOrRaw(val any) string {
	text, err := flatten(val)
	if err != nil {
		return fmt.Sprintf("%+v", val)
	}
	return text
}

func flatten(val any) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []any:
		// Numbered list, items separated by blank lines
		items := make([]string, 0, len(v))
		for i, item := range v {
			text, err := flatten(item)
			if err != nil {
				return "", err
			}
			items = append(items, fmt.Sprintf("%d. %s", i+1, text))
		}
		return strings.Join(items, "\n\n"), nil
	case map[string]any:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(pretty), nil
	case float64, int, int64, bool, json.Number:
		return fmt.Sprint(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Extraction converts an arbitrary analysis result into canonical extraction
// records. Every record carries a non-empty term and a string value; objects
// are JSON-stringified. Categories are assigned from the taxonomy when the
// backend did not provide one.
func Extraction(raw any) []model.ExtractionRecord {
	raw = unwrapExtraction(raw)

	switch v := raw.(type) {
	case nil:
		return []model.ExtractionRecord{}
	case []any:
		records := make([]model.ExtractionRecord, 0, len(v))
		for _, item := range v {
			records = append(records, recordFrom(item))
		}
		return records
	case map[string]any:
		// Stored map order is not meaningful; sort keys so the output
		// sequence is stable.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make([]model.ExtractionRecord, 0, len(keys))
		for _, k := range keys {
			records = append(records, newRecord(k, v[k], "", ""))
		}
		return records
	default:
		return []model.ExtractionRecord{newRecord("Result", v, "", "")}
	}
}

// unwrapExtraction removes one level of the stored envelope
// {"Information Extraction": {"results": [...]}} when present.
func unwrapExtraction(raw any) any {
	m, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	wrapped, ok := m["Information Extraction"]
	if !ok {
		return raw
	}
	inner, ok := wrapped.(map[string]any)
	if !ok {
		return wrapped
	}
	if results, ok := inner["results"]; ok {
		return results
	}
	return inner
}

func recordFrom(item any) model.ExtractionRecord {
	m, ok := item.(map[string]any)
	if !ok {
		return newRecord("Unknown", item, "", "")
	}

	term, _ := m["term"].(string)
	if term == "" {
		term = "Unknown"
	}
	timestamp, _ := m["timestamp"].(string)
	cat, _ := m["category"].(string)

	return newRecord(term, m["extracted_value"], timestamp, cat)
}

func newRecord(term string, value any, timestamp, cat string) model.ExtractionRecord {
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}
	if cat == "" {
		cat = Categorize(term)
	}
	return model.ExtractionRecord{
		Term:           term,
		ExtractedValue: stringify(value),
		Timestamp:      timestamp,
		Category:       cat,
	}
}

// stringify renders an extracted value as a string. Scalars keep their JSON
// form; objects and arrays are JSON-stringified.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
