// Package httpapi serves the classifier as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
)

const serviceName = "Mail Guard ML API"

// Server is the HTTP frontend of the spam filter service
type Server struct {
	service   *core.SpamFilterService
	feedback  core.CorpusStore
	metrics   http.Handler
	processor *textproc.Processor
	logger    *zap.Logger

	listenAddr string
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new HTTP server. feedback and metrics may be nil, in
// which case the corresponding routes answer 404.
func NewServer(
	service *core.SpamFilterService,
	feedback core.CorpusStore,
	metrics http.Handler,
	processor *textproc.Processor,
	logger *zap.Logger,
	listenAddr string,
) *Server {
	return &Server{
		service:    service,
		feedback:   feedback,
		metrics:    metrics,
		processor:  processor,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/train", s.handleTrain).Methods(http.MethodPost)
	router.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	router.HandleFunc("/model-info", s.handleModelInfo).Methods(http.MethodGet)
	if s.feedback != nil {
		router.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)
	}
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return router
}

// Start listens and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP API", zap.String("listen_address", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP API stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting for in-flight requests
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Stopping HTTP API")
	return s.httpServer.Shutdown(ctx)
}

type classifyRequest struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type feedbackRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
	Label   string `json:"label"`
	Retrain bool   `json:"retrain"`
}

type classificationView struct {
	Classification   core.Label       `json:"classification"`
	ThreatLevel      core.ThreatLevel `json:"threat_level"`
	Confidence       float64          `json:"confidence"`
	SpamProbability  float64          `json:"spam_probability"`
	Keywords         []string         `json:"keywords"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
	Algorithm        string           `json:"algorithm"`
	ModelVersion     string           `json:"model_version"`
	ProcessingID     string           `json:"processing_id,omitempty"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func viewOf(r *core.ClassificationResult) classificationView {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return classificationView{
		Classification:   r.Classification,
		ThreatLevel:      r.ThreatLevel,
		Confidence:       round(r.Confidence, 3),
		SpamProbability:  round(r.SpamProbability, 3),
		Keywords:         keywords,
		ProcessingTimeMS: round(float64(r.ProcessingTime)/float64(time.Millisecond), 2),
		Algorithm:        r.Algorithm,
		ModelVersion:     r.ModelVersion,
		ProcessingID:     r.ProcessingID,
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       serviceName,
		"version":       core.ModelVersion,
		"model_trained": s.service.IsTrained(),
		"timestamp":     timestamp(),
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Training request received")
	metrics, err := s.service.Train(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Model trained successfully",
		"metrics":   metrics,
		"timestamp": timestamp(),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, core.MalformedInput("No JSON data provided"))
		return
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Content) == "" {
		s.writeError(w, http.StatusBadRequest, core.MalformedInput("Either subject or content must be provided"))
		return
	}

	s.logger.Info("Classifying email", zap.String("sender", req.Sender))
	email := &core.Email{
		From:    req.Sender,
		Subject: s.processor.Prepare(req.Subject),
		Body:    s.processor.Prepare(req.Content),
	}
	result, err := s.service.AnalyzeEmail(r.Context(), email)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"result":    viewOf(result),
		"timestamp": timestamp(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ModelInfo())
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, core.MalformedInput("No JSON data provided"))
		return
	}
	text := strings.TrimSpace(strings.TrimSpace(req.Subject) + " " + strings.TrimSpace(req.Content))
	if text == "" {
		s.writeError(w, http.StatusBadRequest, core.MalformedInput("Either subject or content must be provided"))
		return
	}
	label, err := core.ParseLabel(req.Label)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, core.MalformedInput("%v", err))
		return
	}

	if err := s.feedback.Add(r.Context(), core.Sample{Text: s.processor.Prepare(text), Label: label}); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	count, err := s.feedback.Count(r.Context())
	if err != nil {
		s.logger.Warn("Failed to count feedback samples", zap.Error(err))
	}
	s.logger.Info("Feedback recorded", zap.String("label", string(label)), zap.Int("stored", count))

	resp := map[string]any{
		"success":   true,
		"stored":    count,
		"timestamp": timestamp(),
	}
	if req.Retrain {
		metrics, err := s.service.Train(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp["metrics"] = metrics
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindMalformedInput:
		return http.StatusBadRequest
	case core.KindNotTrained:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	msg := err.Error()
	var domainErr *core.Error
	if errors.As(err, &domainErr) && domainErr.Err == nil {
		msg = domainErr.Message
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		next.ServeHTTP(w, r)
	})
}
