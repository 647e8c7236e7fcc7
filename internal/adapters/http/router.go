package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
	"github.com/mfortin/tax-intake/internal/export"
	"github.com/mfortin/tax-intake/internal/observability/metrics"
)

// maxUploadBytes bounds the multipart payload a single upload may carry.
const maxUploadBytes = 32 << 20

type Router struct {
	service   string
	clients   ports.ClientService
	intakes   ports.IntakeService
	ingestor  ports.DocumentIngestor
	lifecycle ports.DocumentLifecycle
	exporter  *export.Service
	metrics   *metrics.HTTPServerMetrics
	maxUpload int64
}

func NewRouter(
	service string,
	clients ports.ClientService,
	intakes ports.IntakeService,
	ingestor ports.DocumentIngestor,
	lifecycle ports.DocumentLifecycle,
	exporter *export.Service,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:   service,
		clients:   clients,
		intakes:   intakes,
		ingestor:  ingestor,
		lifecycle: lifecycle,
		exporter:  exporter,
		metrics:   serverMetrics,
		maxUpload: maxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/clients", rt.createClient)
	mux.HandleFunc("GET /v1/clients", rt.listClients)
	mux.HandleFunc("POST /v1/intakes", rt.createIntake)
	mux.HandleFunc("GET /v1/intakes/{intake_id}/checklist", rt.getChecklist)
	mux.HandleFunc("GET /v1/intakes/{intake_id}/export", rt.exportIntake)
	mux.HandleFunc("POST /v1/intakes/{intake_id}/documents", rt.uploadDocument)
	mux.HandleFunc("POST /v1/intakes/{intake_id}/classify", rt.classifyIntake)
	mux.HandleFunc("POST /v1/intakes/{intake_id}/extract", rt.extractIntake)
	mux.HandleFunc("POST /v1/documents/{document_id}/classify", rt.classifyDocument)
	mux.HandleFunc("POST /v1/documents/{document_id}/extract", rt.extractDocument)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	return rt.instrument(mux)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Complexity string `json:"complexity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	client, err := rt.clients.Create(r.Context(), req.Name, req.Email, domain.ComplexityTier(req.Complexity))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (rt *Router) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := rt.clients.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (rt *Router) createIntake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID   string `json:"client_id"`
		FiscalYear int    `json:"fiscal_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.ClientID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id is required"})
		return
	}

	intake, items, err := rt.intakes.Create(r.Context(), req.ClientID, req.FiscalYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"intake":    intake,
		"checklist": items,
	})
}

func (rt *Router) getChecklist(w http.ResponseWriter, r *http.Request) {
	intake, items, err := rt.intakes.Checklist(r.Context(), r.PathValue("intake_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intake":    intake,
		"checklist": items,
	})
}

func (rt *Router) exportIntake(w http.ResponseWriter, r *http.Request) {
	intakeID := r.PathValue("intake_id")
	workbook, err := rt.exporter.IntakeSummaryXLSX(r.Context(), intakeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="intake-`+intakeID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > rt.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUpload)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		// Chunked bodies have no Content-Length; the limit then trips
		// during multipart parsing instead.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := rt.ingestor.Upload(
		r.Context(),
		r.PathValue("intake_id"),
		fileHeader.Filename,
		mimeType,
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, mimeType)
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) classifyDocument(w http.ResponseWriter, r *http.Request) {
	doc, status, err := rt.lifecycle.ClassifyDocument(r.Context(), r.PathValue("document_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordClassification(rt.service, string(doc.DocKind))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document":      doc,
		"intake_status": status,
	})
}

func (rt *Router) classifyIntake(w http.ResponseWriter, r *http.Request) {
	docs, status, err := rt.lifecycle.ClassifyIntake(r.Context(), r.PathValue("intake_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		for _, doc := range docs {
			rt.metrics.RecordClassification(rt.service, string(doc.DocKind))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents":     docs,
		"intake_status": status,
	})
}

func (rt *Router) extractDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	doc, status, err := rt.lifecycle.ExtractDocument(r.Context(), r.PathValue("document_id"))
	if rt.metrics != nil {
		rt.metrics.RecordExtraction(rt.service, time.Since(start), err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document":      doc,
		"intake_status": status,
	})
}

func (rt *Router) extractIntake(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	docs, status, err := rt.lifecycle.ExtractIntake(r.Context(), r.PathValue("intake_id"))
	if rt.metrics != nil {
		rt.metrics.RecordExtraction(rt.service, time.Since(start), err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents":     docs,
		"intake_status": status,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{
		"error":      err.Error(),
		"request_id": requestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
