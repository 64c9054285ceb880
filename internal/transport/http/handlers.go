package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"valuation-service/internal/app"
	"valuation-service/internal/domain"
	"valuation-service/internal/s2d"
	"valuation-service/internal/valuation"
)

const maxBodyBytes = 1 << 20

// AccessKeyHeader carries the key returned when an assessment is started or resumed.
const AccessKeyHeader = "X-Assessment-Key"

// Handler serves the assessment REST API.
type Handler struct {
	service *app.AssessmentService
}

func NewHandler(service *app.AssessmentService) *Handler {
	return &Handler{service: service}
}

type startRequest struct {
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
}

type answersRequest struct {
	Answers domain.Answers `json:"answers"`
}

type previewRequest struct {
	Section string         `json:"section"`
	Answers domain.Answers `json:"answers"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type continuationByEmailRequest struct {
	Email string `json:"email"`
}

type submitResponse struct {
	domain.Submission
	Summary string `json:"summary"`
}

type continuationResponse struct {
	Sent      bool       `json:"sent"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type s2dBattery struct {
	Pairs          []s2dPair       `json:"pairs"`
	ProcessOptions []domain.Option `json:"processOptions"`
	OwnerOptions   []domain.Option `json:"ownerOptions"`
}

type s2dPair struct {
	Index      string `json:"index"`
	Topic      string `json:"topic"`
	ProcessKey string `json:"processKey"`
	Process    string `json:"process"`
	OwnerKey   string `json:"ownerKey"`
	Owner      string `json:"owner"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) questionnaire(w http.ResponseWriter, r *http.Request) {
	bank, err := h.service.Questionnaire(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *Handler) s2dBattery(w http.ResponseWriter, _ *http.Request) {
	out := s2dBattery{ProcessOptions: s2d.ProcessOptions, OwnerOptions: s2d.OwnerOptions}
	for _, p := range s2d.Pairs {
		out.Pairs = append(out.Pairs, s2dPair{
			Index:      s2d.Index(p.N),
			Topic:      p.Topic,
			ProcessKey: s2d.ProcessKey(p.N),
			Process:    p.Process,
			OwnerKey:   s2d.OwnerKey(p.N),
			Owner:      p.Owner,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.service.Start(r.Context(), req.Email, req.CompanyName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// requireAccess rejects requests for an assessment that do not carry its key.
func (h *Handler) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.service.Authorize(r.Context(), chi.URLParam(r, "id"), r.Header.Get(AccessKeyHeader)); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) saveProgress(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.service.SaveProgress(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	sub, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := submitResponse{Submission: sub}
	if sub.Valuation != nil {
		resp.Summary = valuation.RoadmapSummary(sub.Valuation.Roadmap)
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestContinuation never returns the token itself; it only travels by email.
func (h *Handler) requestContinuation(w http.ResponseWriter, r *http.Request) {
	tok, err := h.service.RequestContinuation(r.Context(), chi.URLParam(r, "id"))
	if err != nil && tok.Token != "" {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "continuation link saved but email delivery failed"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, continuationResponse{Sent: true, ExpiresAt: &tok.ExpiresAt})
}

// requestContinuationByEmail answers 202 whether or not the address has an
// open assessment; the link goes to the inbox only.
func (h *Handler) requestContinuationByEmail(w http.ResponseWriter, r *http.Request) {
	var req continuationByEmailRequest
	if !decode(w, r, &req) {
		return
	}
	tok, err := h.service.RequestContinuationByEmail(r.Context(), req.Email)
	if err != nil && tok.Token != "" {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "continuation link saved but email delivery failed"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, continuationResponse{Sent: true})
}

func (h *Handler) verifyContinuation(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.service.Resume(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) submitS2D(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.service.SubmitS2D(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.Preview(r.Context(), req.Answers, req.Section)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
