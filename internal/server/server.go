// Package server exposes the synchronization jobs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
	"go.uber.org/zap"

	"tablesync/internal/config"
	"tablesync/internal/engine"
	"tablesync/internal/syncerr"
)

const problemContentType = "application/problem+json"

// Service is the set of jobs the server dispatches to. *engine.Synchronizer
// implements it.
type Service interface {
	Transfer(ctx context.Context, req engine.TransferRequest) (engine.Report, error)
	Backup(ctx context.Context, req engine.BackupRequest) (engine.Report, error)
	Tokenize(ctx context.Context, req engine.ProcessRequest) (engine.Report, error)
	Detokenize(ctx context.Context, req engine.ProcessRequest) (engine.Report, error)
}

// Server routes API requests to a Service.
type Server struct {
	cfg    *config.Config
	svc    Service
	log    *zap.Logger
	rd     *render.Render
	router *mux.Router
}

// TableRequest is the JSON body shared by every data operation.
type TableRequest struct {
	TokenGroup             string   `json:"tokenGroup"`
	SourceConnectionString string   `json:"sourceConnectionString"`
	TargetConnectionString string   `json:"targetConnectionString"`
	SourceTable            string   `json:"sourceTable"`
	TargetTable            string   `json:"targetTable"`
	Columns                []string `json:"columns"`
}

// Result is the success body.
type Result struct {
	Message string        `json:"message"`
	Report  engine.Report `json:"report"`
}

// Problem is the error body.
type Problem struct {
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Status    int    `json:"status"`
	Type      string `json:"type"`
	ErrorCode string `json:"errorCode"`
	Instance  string `json:"instance"`
}

// New builds a Server. When gatherer is nil, /metrics is not routed.
func New(cfg *config.Config, svc Service, log *zap.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		log: log,
		rd:  render.New(render.Options{IndentJSON: true}),
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/data").Subrouter()
	api.HandleFunc("/backup", s.Backup).Methods("POST")
	api.HandleFunc("/transfer", s.Transfer).Methods("POST")
	api.HandleFunc("/tokenize", s.Tokenize).Methods("POST")
	api.HandleFunc("/detokenize", s.Detokenize).Methods("POST")
	router.HandleFunc("/healthz", s.Health).Methods("GET")
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.rd.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Backup(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(r, "tokenGroup", "sourceConnectionString", "sourceTable")
	if err != nil {
		s.problem(w, r, err)
		return
	}
	rep, err := s.svc.Backup(r.Context(), engine.BackupRequest{
		DSN:   s.cfg.ResolveDSN(req.SourceConnectionString),
		Table: req.SourceTable,
	})
	s.respond(w, r, "Table backed up successfully.", rep, err)
}

func (s *Server) Transfer(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(r, "sourceConnectionString", "targetConnectionString", "sourceTable", "targetTable")
	if err != nil {
		s.problem(w, r, err)
		return
	}
	rep, err := s.svc.Transfer(r.Context(), engine.TransferRequest{
		SourceDSN:   s.cfg.ResolveDSN(req.SourceConnectionString),
		TargetDSN:   s.cfg.ResolveDSN(req.TargetConnectionString),
		SourceTable: req.SourceTable,
		TargetTable: req.TargetTable,
		Columns:     req.Columns,
	})
	s.respond(w, r, "Data transferred successfully.", rep, err)
}

func (s *Server) Tokenize(w http.ResponseWriter, r *http.Request) {
	s.process(w, r, false)
}

func (s *Server) Detokenize(w http.ResponseWriter, r *http.Request) {
	s.process(w, r, true)
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, isTokenized bool) {
	req, err := s.decode(r, "tokenGroup", "sourceConnectionString", "sourceTable", "columns")
	if err != nil {
		s.problem(w, r, err)
		return
	}
	pr := engine.ProcessRequest{
		DSN:     s.cfg.ResolveDSN(req.SourceConnectionString),
		Table:   req.SourceTable,
		Columns: req.Columns,
	}

	var rep engine.Report
	msg := "Table tokenized successfully."
	if isTokenized {
		msg = "Table detokenized successfully."
		rep, err = s.svc.Detokenize(r.Context(), pr)
	} else {
		rep, err = s.svc.Tokenize(r.Context(), pr)
	}
	s.respond(w, r, msg, rep, err)
}

// decode reads a TableRequest and checks that the named fields are set.
func (s *Server) decode(r *http.Request, required ...string) (TableRequest, error) {
	var req TableRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, syncerr.Wrap(err, syncerr.InvalidRequest, "The request body is not valid JSON.")
	}

	var missing []string
	for _, f := range required {
		if !present(req, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return req, syncerr.New(syncerr.InvalidRequest, "Missing required fields: %s.", strings.Join(missing, ", "))
	}
	return req, nil
}

func present(req TableRequest, field string) bool {
	switch field {
	case "tokenGroup":
		return strings.TrimSpace(req.TokenGroup) != ""
	case "sourceConnectionString":
		return strings.TrimSpace(req.SourceConnectionString) != ""
	case "targetConnectionString":
		return strings.TrimSpace(req.TargetConnectionString) != ""
	case "sourceTable":
		return strings.TrimSpace(req.SourceTable) != ""
	case "targetTable":
		return strings.TrimSpace(req.TargetTable) != ""
	case "columns":
		return len(req.Columns) > 0
	}
	return false
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, msg string, rep engine.Report, err error) {
	if err != nil {
		s.problem(w, r, err)
		return
	}
	s.rd.JSON(w, http.StatusOK, Result{Message: msg, Report: rep})
}

// problem logs err once and writes it as problem+json.
func (s *Server) problem(w http.ResponseWriter, r *http.Request, err error) {
	p, detail := syncerr.Translate(err)
	s.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("errorCode", p.Code),
		zap.Error(err))

	s.rd.Render(w, render.JSON{
		Head:   render.Head{ContentType: problemContentType, Status: p.Status},
		Indent: true,
	}, Problem{
		Title:     p.Title,
		Detail:    detail,
		Status:    p.Status,
		Type:      p.Type,
		ErrorCode: p.Code,
		Instance:  r.URL.Path,
	})
}
