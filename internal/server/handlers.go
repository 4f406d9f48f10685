package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/email"
	"github.com/raaihank/meeting-sentinel/internal/names"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type anonymizeRequest struct {
	Transcript string `json:"transcript"`
}

type anonymizeResponse struct {
	Text     string            `json:"text"`
	Prompt   string            `json:"prompt"`
	Findings []privacy.Finding `json:"findings"`
}

type textRequest struct {
	Text string `json:"text"`
}

type restoreResponse struct {
	Text       string   `json:"text"`
	Resolved   int      `json:"resolved"`
	Unresolved []string `json:"unresolved"`
}

type summarizeRequest struct {
	Prompt string `json:"prompt"`
}

type draftRequest struct {
	Summary string `json:"summary"`
	To      string `json:"to"`
	Attach  bool   `json:"attach"`
	Format  string `json:"format"` // text (default) or eml
}

type acceptRequest struct {
	People    []string `json:"people"`
	Companies []string `json:"companies"`
}

// nameField accepts either a JSON array or the comma-separated edit form.
type nameField []string

func (f *nameField) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*f = names.ParseCommaList(text)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings")
	}
	*f = list
	return nil
}

type putNamesRequest struct {
	People    nameField `json:"people"`
	Companies nameField `json:"companies"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":                "meeting-sentinel",
		"version":             s.version,
		"storage":             s.config.Storage.Backend,
		"matching":            s.config.Anonymizer.Matching,
		"stable_placeholders": s.config.Anonymizer.StablePlaceholders,
		"ner_provider":        s.provider,
		"summarizer":          s.summarizer() != nil,
		"status":              s.status(),
	}
	if s.hub != nil {
		info["websocket"] = s.hub.GetStats()
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !s.decode(w, r, &req) {
		return
	}

	var (
		result privacy.Result
		err    error
	)
	if req.Transcript != "" {
		result, err = s.session.AnonymizeText(r.Context(), req.Transcript)
	} else {
		result, err = s.session.Anonymize(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	findings := result.Findings
	if findings == nil {
		findings = []privacy.Finding{}
	}
	writeJSON(w, http.StatusOK, anonymizeResponse{
		Text:     result.Text,
		Prompt:   s.session.BuildPrompt(result.Text),
		Findings: findings,
	})
}

func (s *Server) handleDeanonymize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.session.Deanonymize(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	unresolved := result.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}
	writeJSON(w, http.StatusOK, restoreResponse{Text: result.Text, Resolved: result.Resolved, Unresolved: unresolved})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Transcript != "" {
		s.session.SetTranscript(req.Transcript)
	}

	sugg, err := s.session.Suggest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sugg)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	sum := s.summarizer()
	if sum == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "summarizer is not configured"})
		return
	}

	var req summarizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is empty", Kind: string(session.KindInput)})
		return
	}

	summary, err := sum.Summarize(r.Context(), req.Prompt)
	if err != nil {
		s.logger.WithRequestID(getRequestID(r.Context())).Error("Summarization failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleGetNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyToSlices(s.session.Names()))
}

func (s *Server) handlePutNames(w http.ResponseWriter, r *http.Request) {
	var req putNamesRequest
	if !s.decode(w, r, &req) {
		return
	}

	list := names.List{People: []string(req.People), Companies: []string(req.Companies)}
	if err := s.session.SetNames(r.Context(), list); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyToSlices(s.session.Names()))
}

func (s *Server) handleImportNames(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body", Kind: string(session.KindInput)})
		return
	}
	if err := s.session.ImportCSV(r.Context(), data); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyToSlices(s.session.Names()))
}

func (s *Server) handleExportNames(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="names.csv"`)
	if err := s.session.ExportCSV(w); err != nil {
		s.logger.WithRequestID(getRequestID(r.Context())).Error("Names export failed", zap.Error(err))
	}
}

func (s *Server) handleAcceptNames(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if !s.decode(w, r, &req) {
		return
	}
	list, err := s.session.AcceptSuggestions(r.Context(), req.People, req.Companies)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyToSlices(list))
}

func (s *Server) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Defaults())
}

func (s *Server) handlePutDefaults(w http.ResponseWriter, r *http.Request) {
	// unset fields keep their current value
	text := s.session.Defaults()
	if !s.decode(w, r, &text) {
		return
	}
	saved, err := s.session.UpdateDefaults(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !s.decode(w, r, &req) {
		return
	}
	q := r.URL.Query()
	if f := q.Get("format"); f != "" {
		req.Format = f
	}
	if a := q.Get("attach"); a != "" {
		req.Attach, _ = strconv.ParseBool(a)
	}

	draft, err := s.session.ComposeDraft(req.Summary)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	draft.To = req.To

	switch req.Format {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, draft.String())
	case "eml":
		w.Header().Set("Content-Type", "message/rfc822")
		w.Header().Set("Content-Disposition", `attachment; filename="draft.eml"`)
		if err := email.WriteEML(w, draft, req.Attach); err != nil {
			s.logger.WithRequestID(getRequestID(r.Context())).Error("Draft export failed", zap.Error(err))
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("unknown format %q (must be text or eml)", req.Format),
			Kind:  string(session.KindInput),
		})
	}
}

// decode reads a JSON body. An empty body leaves v untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, errorResponse{Error: "invalid request body: " + err.Error(), Kind: string(session.KindInput)})
	return false
}

// writeError maps session error kinds onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := session.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case session.KindInput:
		status = http.StatusBadRequest
	case session.KindData:
		status = http.StatusUnprocessableEntity
	}

	log := s.logger.WithRequestID(getRequestID(r.Context()))
	if status >= 500 {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Info("Request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func emptyToSlices(l names.List) names.List {
	if l.People == nil {
		l.People = []string{}
	}
	if l.Companies == nil {
		l.Companies = []string{}
	}
	return l
}
