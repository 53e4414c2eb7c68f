package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"herd/cmd/internal/records"
)

const dateLayout = "2006-01-02"

type cattleRequest struct {
	Breed      string `json:"breed"`
	Color      string `json:"color"`
	Age        *int   `json:"age"`
	ShedNumber string `json:"shedNumber"`
	Gender     string `json:"gender"`
	TagNumber  string `json:"tagNumber"`
	Notes      string `json:"notes"`
}

type cattleResponse struct {
	ID         int64     `json:"id"`
	Breed      string    `json:"breed"`
	Color      string    `json:"color"`
	Age        *int      `json:"age"`
	ShedNumber string    `json:"shedNumber"`
	Gender     string    `json:"gender"`
	TagNumber  string    `json:"tagNumber"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
}

type cattleListResponse struct {
	Cattle []cattleResponse `json:"cattle"`
	Count  int              `json:"count"`
}

type healthRequest struct {
	CheckupDate string `json:"checkupDate"`
	Diagnosis   string `json:"diagnosis"`
	Medicines   string `json:"medicines"`
	Remarks     string `json:"remarks"`
}

type healthResponse struct {
	ID             int64     `json:"id"`
	CattleID       int64     `json:"cattleId"`
	CheckupDate    string    `json:"checkupDate"`
	Diagnosis      string    `json:"diagnosis"`
	Medicines      string    `json:"medicines"`
	Remarks        string    `json:"remarks"`
	DoctorUsername string    `json:"doctorUsername"`
	CreatedAt      time.Time `json:"createdAt"`
}

type healthListResponse struct {
	Entries []healthResponse `json:"entries"`
}

// cattleHandler serves the record API. Every route sits behind requireOperator.
type cattleHandler struct {
	store   records.Store
	planner *records.Planner
	log     *slog.Logger
	maxBody int64
}

func (h *cattleHandler) register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /cattle", guard(http.HandlerFunc(h.handleSearch)))
	mux.Handle("POST /cattle", guard(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /cattle/{id}", guard(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /cattle/{id}", guard(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /cattle/{id}", guard(http.HandlerFunc(h.handleDelete)))
	mux.Handle("GET /cattle/{id}/health", guard(http.HandlerFunc(h.handleListHealth)))
	mux.Handle("POST /cattle/{id}/health", guard(http.HandlerFunc(h.handleAddHealth)))
}

func (h *cattleHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	recs, err := h.planner.Search(r.Context(), records.CriteriaFromQuery(r.URL.Query()))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	out := cattleListResponse{Cattle: make([]cattleResponse, 0, len(recs)), Count: len(recs)}
	for _, rec := range recs {
		out.Cattle = append(out.Cattle, toCattleResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *cattleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req cattleRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a single JSON object")
		return
	}

	rec, err := h.store.CreateRecord(r.Context(), req.input())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.log.Info("records.create.ok", "request_id", RequestIDFromContext(r.Context()), "cattle_id", rec.ID)
	writeJSON(w, http.StatusCreated, toCattleResponse(rec))
}

func (h *cattleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.store.GetRecord(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCattleResponse(rec))
}

func (h *cattleHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req cattleRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a single JSON object")
		return
	}

	rec, err := h.store.UpdateRecord(r.Context(), id, req.input())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCattleResponse(rec))
}

func (h *cattleHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteRecord(r.Context(), id); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.log.Info("records.delete.ok", "request_id", RequestIDFromContext(r.Context()), "cattle_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *cattleHandler) handleListHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	es, err := h.store.ListHealthEntries(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	out := healthListResponse{Entries: make([]healthResponse, 0, len(es))}
	for _, e := range es {
		out.Entries = append(out.Entries, toHealthResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *cattleHandler) handleAddHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req healthRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a single JSON object")
		return
	}

	in := records.HealthEntryInput{
		CattleID:  id,
		Diagnosis: req.Diagnosis,
		Medicines: req.Medicines,
		Remarks:   req.Remarks,
	}
	if d := strings.TrimSpace(req.CheckupDate); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "checkupDate must be YYYY-MM-DD")
			return
		}
		in.CheckupDate = t
	}
	if op, ok := OperatorFromContext(r.Context()); ok {
		in.DoctorUsername = op.Username
	}

	e, err := h.store.AddHealthEntry(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHealthResponse(e))
}

// writeStoreError maps records error kinds to HTTP responses. Messages of invalid
// input errors are safe to return; everything else is logged and summarized.
func (h *cattleHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case records.IsInvalidInput(err):
		msg := "invalid input"
		var oe records.OpError
		if errors.As(err, &oe) && oe.Msg != "" {
			msg = oe.Msg
		}
		writeError(w, http.StatusBadRequest, "invalid_input", msg)
	case records.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "cattle not found")
	case records.IsStoreUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "please retry later")
	default:
		h.log.Error("http.records.fail", "request_id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (req cattleRequest) input() records.RecordInput {
	return records.RecordInput{
		Breed:      req.Breed,
		Color:      req.Color,
		Age:        req.Age,
		ShedNumber: req.ShedNumber,
		Gender:     req.Gender,
		TagNumber:  req.TagNumber,
		Notes:      req.Notes,
	}
}

func toCattleResponse(r records.Record) cattleResponse {
	return cattleResponse{
		ID:         r.ID,
		Breed:      r.Breed,
		Color:      r.Color,
		Age:        r.Age,
		ShedNumber: r.ShedNumber,
		Gender:     r.Gender,
		TagNumber:  r.TagNumber,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
	}
}

func toHealthResponse(e records.HealthEntry) healthResponse {
	return healthResponse{
		ID:             e.ID,
		CattleID:       e.CattleID,
		CheckupDate:    e.CheckupDate.Format(dateLayout),
		Diagnosis:      e.Diagnosis,
		Medicines:      e.Medicines,
		Remarks:        e.Remarks,
		DoctorUsername: e.DoctorUsername,
		CreatedAt:      e.CreatedAt,
	}
}
