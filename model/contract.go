package model

import (
	"time"
)

// AnalysisType selects which backend analysis to run and which view renders it
type AnalysisType string

const (
	TypeContractReview        AnalysisType = "contract_review"
	TypeContractSummary       AnalysisType = "contract_summary"
	TypeLegalResearch         AnalysisType = "legal_research"
	TypeRiskAssessment        AnalysisType = "risk_assessment"
	TypeInformationExtraction AnalysisType = "information_extraction"
	TypeCustomAnalysis        AnalysisType = "custom_analysis"
)

// Valid reports whether t is one of the known analysis types
func (t AnalysisType) Valid() bool {
	switch t {
	case TypeContractReview, TypeContractSummary, TypeLegalResearch,
		TypeRiskAssessment, TypeInformationExtraction, TypeCustomAnalysis:
		return true
	}
	return false
}

// View names used for navigation dispatch
const (
	ViewReview     = "contract-review"
	ViewResearch   = "legal-research"
	ViewRisk       = "risk-assessment"
	ViewExtraction = "extraction"
	ViewChat       = "chat"
)

// ContractDocument is one entry in the per-user document registry.
// Identity is the file name (case-sensitive, last-write-wins on re-upload).
type ContractDocument struct {
	FileName        string           `json:"fileName"`
	UploadDate      time.Time        `json:"uploadDate"`
	LastUpdated     time.Time        `json:"lastUpdated"`
	Type            string           `json:"type"`
	Status          string           `json:"status"`
	ExtractedData   map[string]any   `json:"extractedData,omitempty"`
	AnalysisResult  any              `json:"analysisResult,omitempty"`
	AnalysisHistory []AnalysisRecord `json:"analysisHistory,omitempty"`
}

// AnalysisRecord is a superseded analysis result kept in a document's history
type AnalysisRecord struct {
	Type   string    `json:"type"`
	Result any       `json:"result"`
	Date   time.Time `json:"date"`
}

// Document status constants
const (
	StatusActive  = "Active"
	StatusUnknown = "Unknown"
)

// AnalysisSnapshot is the value stored under current_analysis and the
// per-type snapshot keys. All fields except Type and Result are optional on
// read; writers always populate FileName and AnalysisDate.
type AnalysisSnapshot struct {
	Type         string    `json:"type"`
	Result       any       `json:"result"`
	FileName     string    `json:"fileName,omitempty"`
	AnalysisDate time.Time `json:"analysisDate,omitzero"`
	IsHistorical bool      `json:"isHistorical,omitempty"`
}
