package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MuthuAjay/contracts-v3/model"
	"github.com/MuthuAjay/contracts-v3/normalize"
)

// ErrContractNotFound reports a file name with no registry entry
var ErrContractNotFound = errors.New("contract not found")

// ErrNoOriginal reports that the stored original cannot be served, either
// because object storage is disabled or the document is unknown
var ErrNoOriginal = errors.New("original document not available")

// Registry maintains each user's list of contract documents inside the
// session store, together with the snapshot bookkeeping every analysis run
// performs. A document's identity is its file name; re-uploads replace the
// extracted data wholesale but keep upload date and history.
type Registry struct {
	sessions   *SessionStore
	gateway    *AnalyzerGateway
	storage    *ObjectStorage // optional, nil disables original retention
	maxHistory int
}

func NewRegistry(sessions *SessionStore, gateway *AnalyzerGateway, storage *ObjectStorage, maxHistory int) *Registry {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &Registry{
		sessions:   sessions,
		gateway:    gateway,
		storage:    storage,
		maxHistory: maxHistory,
	}
}

// snapshotProbe is the minimal shape read back from stored snapshots during
// cascade deletion. Older revisions did not always write fileName.
type snapshotProbe struct {
	FileName string `json:"fileName"`
}

// List returns the user's registry, oldest first
func (r *Registry) List(ctx context.Context, user string) ([]model.ContractDocument, error) {
	var contracts []model.ContractDocument
	if _, err := r.sessions.Get(ctx, user, KeyContracts, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// Get returns one document by file name
func (r *Registry) Get(ctx context.Context, user, fileName string) (*model.ContractDocument, error) {
	contracts, err := r.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range contracts {
		if contracts[i].FileName == fileName {
			return &contracts[i], nil
		}
	}
	return nil, nil
}

// Upload stores the original document, runs field extraction through the
// gateway, and creates or replaces the registry entry for the file name.
// On replace, uploadDate and analysisHistory are preserved; extractedData is
// replaced wholesale.
func (r *Registry) Upload(ctx context.Context, user, fileName string, data []byte, contentType string) (*model.ContractDocument, error) {
	if r.storage != nil {
		objectName := r.storage.ObjectName(user, fileName)
		if err := r.storage.StoreOriginal(ctx, objectName, data, contentType); err != nil {
			return nil, err
		}
	}

	fields, err := r.gateway.Upload(ctx, fileName, data, contentType)
	if err != nil {
		return nil, err
	}

	contracts, err := r.List(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := model.ContractDocument{
		FileName:      fileName,
		UploadDate:    now,
		LastUpdated:   now,
		Type:          model.StatusUnknown,
		Status:        model.StatusActive,
		ExtractedData: fields,
	}

	replaced := false
	for i := range contracts {
		if contracts[i].FileName == fileName {
			doc.UploadDate = contracts[i].UploadDate
			doc.AnalysisHistory = contracts[i].AnalysisHistory
			contracts[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		contracts = append(contracts, doc)
	}

	if err := r.sessions.Set(ctx, user, KeyContracts, contracts); err != nil {
		return nil, err
	}
	if err := r.sessions.Set(ctx, user, KeyExtractionInfo, withFileName(fields, fileName)); err != nil {
		return nil, err
	}

	slog.Info("contract uploaded",
		"file_name", fileName,
		"replaced", replaced,
		"field_count", len(fields),
	)

	return &doc, nil
}

// RunAnalysis invokes the gateway for one document and, on success, performs
// the full snapshot bookkeeping. On failure the document and every snapshot
// key are left untouched. Returns the raw result and the destination view.
func (r *Registry) RunAnalysis(ctx context.Context, user, fileName string, typ model.AnalysisType, customQuery string) (any, string, error) {
	doc, err := r.Get(ctx, user, fileName)
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}

	result, err := r.gateway.Analyze(ctx, doc.ExtractedData, typ, customQuery)
	if err != nil {
		return nil, "", fmt.Errorf("analysis failed: %w", err)
	}

	if err := r.RecordAnalysis(ctx, user, fileName, typ, result); err != nil {
		return nil, "", err
	}

	return result, RouteFor(typ), nil
}

// RecordAnalysis archives the document's previous result into its history,
// installs the new one, and refreshes the session snapshots. It is shared by
// RunAnalysis and the chat flow, which must perform the identical
// bookkeeping exactly once per successful response.
func (r *Registry) RecordAnalysis(ctx context.Context, user, fileName string, typ model.AnalysisType, result any) error {
	contracts, err := r.List(ctx, user)
	if err != nil {
		return err
	}

	now := time.Now()
	var doc *model.ContractDocument
	for i := range contracts {
		if contracts[i].FileName != fileName {
			continue
		}
		doc = &contracts[i]

		// Superseded results move to history, never mutated in place
		if doc.AnalysisResult != nil {
			doc.AnalysisHistory = append(doc.AnalysisHistory, model.AnalysisRecord{
				Type:   doc.Type,
				Result: doc.AnalysisResult,
				Date:   doc.LastUpdated,
			})
			if len(doc.AnalysisHistory) > r.maxHistory {
				doc.AnalysisHistory = doc.AnalysisHistory[len(doc.AnalysisHistory)-r.maxHistory:]
			}
		}

		doc.AnalysisResult = result
		doc.Type = string(typ)
		doc.LastUpdated = now
		break
	}
	if doc == nil {
		return fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}

	if err := r.sessions.Set(ctx, user, KeyContracts, contracts); err != nil {
		return err
	}

	snapshot := model.AnalysisSnapshot{
		Type:         string(typ),
		Result:       result,
		FileName:     fileName,
		AnalysisDate: now,
	}
	if err := r.sessions.Set(ctx, user, KeyCurrentAnalysis, snapshot); err != nil {
		return err
	}

	switch typ {
	case model.TypeInformationExtraction:
		// The extraction view consumes the canonical record shape
		records := normalize.Extraction(result)
		envelope := map[string]any{
			"Information Extraction": model.ExtractionResults{Results: records},
			"fileName":               fileName,
		}
		if err := r.sessions.Set(ctx, user, KeyExtraction, envelope); err != nil {
			return err
		}
	case model.TypeCustomAnalysis:
		// Chat owns its own transcript persistence; no type snapshot
	default:
		if err := r.sessions.Set(ctx, user, typeSnapshotKey(typ), snapshot); err != nil {
			return err
		}
	}

	slog.Info("analysis recorded",
		"file_name", fileName,
		"analysis_type", typ,
		"history_len", len(doc.AnalysisHistory),
	)

	return nil
}

// Delete removes a document from the registry and cascades removal of every
// session snapshot that references its file name.
func (r *Registry) Delete(ctx context.Context, user, fileName string) error {
	contracts, err := r.List(ctx, user)
	if err != nil {
		return err
	}

	found := false
	remaining := contracts[:0]
	for _, c := range contracts {
		if c.FileName == fileName {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}

	if err := r.sessions.Set(ctx, user, KeyContracts, remaining); err != nil {
		return err
	}

	for _, key := range SnapshotKeys() {
		var probe snapshotProbe
		ok, err := r.sessions.Get(ctx, user, key, &probe)
		if err != nil {
			return err
		}
		if ok && probe.FileName == fileName {
			if err := r.sessions.Remove(ctx, user, key); err != nil {
				return err
			}
		}
	}

	if r.storage != nil {
		objectName := r.storage.ObjectName(user, fileName)
		if err := r.storage.RemoveOriginal(ctx, objectName); err != nil {
			// Registry state is already consistent; the orphaned object is
			// only a storage leak
			slog.Warn("failed to remove stored original", "file_name", fileName, "error", err)
		}
	}

	slog.Info("contract deleted", "file_name", fileName)
	return nil
}

// History returns a document's archived analyses, oldest first
func (r *Registry) History(ctx context.Context, user, fileName string) ([]model.AnalysisRecord, error) {
	doc, err := r.Get(ctx, user, fileName)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}
	return doc.AnalysisHistory, nil
}

// OriginalURL returns a presigned download link for a document's stored
// original. Fails with ErrNoOriginal when object storage is disabled.
func (r *Registry) OriginalURL(ctx context.Context, user, fileName string) (string, error) {
	doc, err := r.Get(ctx, user, fileName)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("contract %q: %w", fileName, ErrContractNotFound)
	}

	if r.storage == nil {
		return "", fmt.Errorf("contract %q: %w", fileName, ErrNoOriginal)
	}
	return r.storage.OriginalURL(ctx, r.storage.ObjectName(user, fileName))
}

// ViewHistory materializes one archived analysis into the current_analysis
// snapshot, marked historical, without touching the document itself.
// Returns the destination view for the archived type.
func (r *Registry) ViewHistory(ctx context.Context, user, fileName string, index int) (string, error) {
	history, err := r.History(ctx, user, fileName)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(history) {
		return "", fmt.Errorf("history index %d out of range", index)
	}

	entry := history[index]
	snapshot := model.AnalysisSnapshot{
		Type:         entry.Type,
		Result:       entry.Result,
		FileName:     fileName,
		AnalysisDate: entry.Date,
		IsHistorical: true,
	}
	if err := r.sessions.Set(ctx, user, KeyCurrentAnalysis, snapshot); err != nil {
		return "", err
	}

	return RouteFor(model.AnalysisType(entry.Type)), nil
}

// RouteFor maps an analysis type to the view that renders it. Every code
// path that routes the user after producing or selecting a result goes
// through here.
func RouteFor(typ model.AnalysisType) string {
	switch typ {
	case model.TypeContractReview, model.TypeContractSummary:
		return model.ViewReview
	case model.TypeLegalResearch:
		return model.ViewResearch
	case model.TypeRiskAssessment:
		return model.ViewRisk
	case model.TypeInformationExtraction:
		return model.ViewExtraction
	case model.TypeCustomAnalysis:
		return model.ViewChat
	default:
		slog.Warn("unknown analysis type, defaulting to extraction view", "analysis_type", typ)
		return model.ViewExtraction
	}
}

// typeSnapshotKey maps an analysis type to its session snapshot key. Review
// and summary share the review view's key.
func typeSnapshotKey(typ model.AnalysisType) string {
	switch typ {
	case model.TypeContractReview, model.TypeContractSummary:
		return KeyContractReview
	case model.TypeLegalResearch:
		return KeyLegalResearch
	case model.TypeRiskAssessment:
		return KeyRiskAssessment
	default:
		return KeyExtraction
	}
}

// withFileName copies the extracted fields and tags them with the source
// file name so cascade deletion can match the extractionInfo key.
func withFileName(fields map[string]any, fileName string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["fileName"] = fileName
	return out
}
