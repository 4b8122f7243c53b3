package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuthuAjay/contracts-v3/model"
)

// decode mimics a backend response body arriving through encoding/json
func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestSectionsFromString(t *testing.T) {
	out := Sections("The contract is acceptable.")

	assert.Equal(t, "The contract is acceptable.", out[model.SectionReview])
	assert.Equal(t, "", out[model.SectionKeyTerms])
	assert.Equal(t, "", out[model.SectionObligations])
	assert.Equal(t, "", out[model.SectionParties])
}

func TestSectionsKeyMapping(t *testing.T) {
	out := Sections(decode(t, `{
		"summary": "Short review.",
		"key_terms": "Payment in 30 days.",
		"obligations": "Deliver monthly.",
		"parties": "Acme Corp and Beta LLC"
	}`))

	assert.Equal(t, "Short review.", out[model.SectionReview])
	assert.Equal(t, "Payment in 30 days.", out[model.SectionKeyTerms])
	assert.Equal(t, "Deliver monthly.", out[model.SectionObligations])
	assert.Equal(t, "Acme Corp and Beta LLC", out[model.SectionParties])
}

func TestSectionsKeyProvisionsAlias(t *testing.T) {
	out := Sections(decode(t, `{"key_provisions": "Indemnity clause."}`))
	assert.Equal(t, "Indemnity clause.", out[model.SectionKeyTerms])
}

func TestSectionsStandardKeysAlwaysPresent(t *testing.T) {
	inputs := []any{
		nil,
		"plain text",
		decode(t, `{"summary": "s"}`),
		decode(t, `["a", "b"]`),
		decode(t, `{"Risk Analysis": {"legal": "low"}}`),
		decode(t, `42`),
	}

	for _, raw := range inputs {
		out := Sections(raw)
		for _, name := range model.StandardSections() {
			_, ok := out[name]
			assert.True(t, ok, "missing standard key %q for input %v", name, raw)
		}
	}
}

func TestSectionsPassThroughUnknownKeys(t *testing.T) {
	out := Sections(decode(t, `{"Legal Research": "Case law summary."}`))
	assert.Equal(t, "Case law summary.", out["Legal Research"])
}

func TestSectionsFlattensArrays(t *testing.T) {
	out := Sections(decode(t, `{"summary": ["first finding", "second finding"]}`))

	assert.Equal(t, "1. first finding\n\n2. second finding", out[model.SectionReview])
}

func TestSectionsFlattensNestedObjects(t *testing.T) {
	out := Sections(decode(t, `{"Risk Analysis": {"legal": "low", "financial": "high"}}`))

	text := out["Risk Analysis"]
	assert.Contains(t, text, `"legal": "low"`)
	assert.Contains(t, text, `"financial": "high"`)
}

func TestSectionsIdempotentOnCanonical(t *testing.T) {
	canonical := Sections(decode(t, `{"summary": "Short review.", "extra": "note"}`))
	again := Sections(canonical)
	assert.Equal(t, canonical, again)
}

func TestSectionsScenarioContractReview(t *testing.T) {
	out := Sections(decode(t, `{"summary": "Short review."}`))
	want := model.Sections{
		model.SectionReview:      "Short review.",
		model.SectionKeyTerms:    "",
		model.SectionObligations: "",
		model.SectionParties:     "",
	}
	assert.Equal(t, want, out)
}

func TestExtractionFromSequence(t *testing.T) {
	records := Extraction(decode(t, `[
		{"term": "Governing Law", "extracted_value": "India", "timestamp": "2025-01-02T10:00:00Z"},
		{"term": "Fixed Fee", "extracted_value": 12000}
	]`))

	require.Len(t, records, 2)
	assert.Equal(t, "Governing Law", records[0].Term)
	assert.Equal(t, "India", records[0].ExtractedValue)
	assert.Equal(t, "2025-01-02T10:00:00Z", records[0].Timestamp)
	assert.Equal(t, "Legal Framework", records[0].Category)

	assert.Equal(t, "Fixed Fee", records[1].Term)
	assert.Equal(t, "12000", records[1].ExtractedValue)
	assert.Equal(t, "Financial Terms", records[1].Category)
}

func TestExtractionUnwrapsEnvelope(t *testing.T) {
	records := Extraction(decode(t, `{
		"Information Extraction": {
			"results": [{"term": "Effective Date", "extracted_value": "2024-05-01"}]
		}
	}`))

	require.Len(t, records, 1)
	assert.Equal(t, "Effective Date", records[0].Term)
	assert.Equal(t, "Key Dates and Duration", records[0].Category)
}

func TestExtractionMissingTermDefaultsToUnknown(t *testing.T) {
	records := Extraction(decode(t, `[{"extracted_value": "something"}]`))

	require.Len(t, records, 1)
	assert.Equal(t, "Unknown", records[0].Term)
	assert.Equal(t, "something", records[0].ExtractedValue)
}

func TestExtractionStringifiesObjects(t *testing.T) {
	records := Extraction(decode(t, `[
		{"term": "Payment Terms", "extracted_value": {"schedule": "monthly", "days": 30}}
	]`))

	require.Len(t, records, 1)

	// Object values round-trip through JSON without loss
	var back map[string]any
	require.NoError(t, json.Unmarshal([]byte(records[0].ExtractedValue), &back))
	assert.Equal(t, "monthly", back["schedule"])
	assert.Equal(t, float64(30), back["days"])
}

func TestExtractionFromMapping(t *testing.T) {
	records := Extraction(decode(t, `{"Governing Law": "India", "Currency": "INR"}`))

	require.Len(t, records, 2)
	// Keys are sorted for a stable sequence
	assert.Equal(t, "Currency", records[0].Term)
	assert.Equal(t, "INR", records[0].ExtractedValue)
	assert.Equal(t, "Governing Law", records[1].Term)
}

func TestExtractionFromScalar(t *testing.T) {
	records := Extraction("no extractable fields")

	require.Len(t, records, 1)
	assert.Equal(t, "Result", records[0].Term)
	assert.Equal(t, "no extractable fields", records[0].ExtractedValue)
}

func TestExtractionRecordsAlwaysWellFormed(t *testing.T) {
	inputs := []any{
		decode(t, `[{"term": null, "extracted_value": null}]`),
		decode(t, `["bare string element"]`),
		decode(t, `{"k": [1, 2]}`),
		nil,
		decode(t, `3.14`),
	}

	for _, raw := range inputs {
		for _, rec := range Extraction(raw) {
			assert.NotEmpty(t, rec.Term, "input %v", raw)
			assert.NotEmpty(t, rec.Timestamp, "input %v", raw)
			assert.NotEmpty(t, rec.Category, "input %v", raw)
		}
	}
}

func TestCategorizeExactMatch(t *testing.T) {
	assert.Equal(t, "Legal Framework", Categorize("Governing Law"))
	assert.Equal(t, "Contract Metadata", Categorize("Agreement Type"))
	assert.Equal(t, "Document Quality", Categorize("Missing Pages"))
}

func TestCategorizeSubstringMatch(t *testing.T) {
	assert.Equal(t, "Legal Framework", Categorize("governing law of the contract"))
	assert.Equal(t, "Confidentiality and Data Protection", Categorize("CONFIDENTIALITY"))
}

func TestCategorizeKeywordHeuristics(t *testing.T) {
	assert.Equal(t, "Key Dates and Duration", Categorize("Delivery Date"))
	assert.Equal(t, "Financial Terms", Categorize("Late payment surcharge"))
	assert.Equal(t, "Financial Terms", Categorize("Setup fee schedule"))
}

func TestCategorizeDefault(t *testing.T) {
	assert.Equal(t, DefaultCategory, Categorize("Zebra Clause"))
	assert.Equal(t, DefaultCategory, Categorize(""))
}

func TestCategorizeDeclarationOrderWins(t *testing.T) {
	// "Contract Start Date" contains both "contract" metadata-ish text and
	// "date"; the substring pass resolves it in taxonomy order.
	got := Categorize("contract start date")
	assert.Equal(t, "Key Dates and Duration", got)
}

func TestFlattenErrorIsolatedPerKey(t *testing.T) {
	// A value encoding/json cannot marshal must not poison sibling keys
	out := Sections(map[string]any{
		"summary": "fine",
		"broken":  func() {},
	})

	assert.Equal(t, "fine", out[model.SectionReview])
	assert.NotEmpty(t, out["broken"])
	assert.False(t, strings.HasPrefix(out["broken"], "{"), "expected preformatted fallback, got %q", out["broken"])
}
