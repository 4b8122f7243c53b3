package model

// Standard section names guaranteed to exist in every normalized sections map
const (
	SectionReview      = "Contract Review"
	SectionKeyTerms    = "Key Terms"
	SectionObligations = "Obligations"
	SectionParties     = "Parties"
)

// Sections is the canonical flat mapping of section name to renderable text
type Sections map[string]string

// StandardSections lists the four keys every Sections value must carry
func StandardSections() []string {
	return []string{SectionReview, SectionKeyTerms, SectionObligations, SectionParties}
}

// ExtractionRecord is one canonical information-extraction row.
// ExtractedValue is always a string; non-scalar values are JSON-stringified.
type ExtractionRecord struct {
	Term           string `json:"term"`
	ExtractedValue string `json:"extracted_value"`
	Timestamp      string `json:"timestamp"`
	Category       string `json:"category,omitempty"`
}

// ExtractionResults is the inner payload of the stored extraction snapshot:
// {"Information Extraction": {"results": [...]}}
type ExtractionResults struct {
	Results []ExtractionRecord `json:"results"`
}
