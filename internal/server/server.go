// Package server exposes the transmission operations over HTTP for
// integrations that cannot link the library directly.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/qr"
	"github.com/denizsoft/go-efatura/efatura/store"
	"github.com/denizsoft/go-efatura/efatura/transfer"
	"github.com/denizsoft/go-efatura/efatura/ubl"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server represents the HTTP API server
type Server struct {
	config       *Config
	router       *gin.Engine
	orchestrator *transfer.Orchestrator
	poller       *transfer.Poller
	invoices     store.InvoiceStore
	transfers    store.TransferStore
	compiler     *ubl.Compiler
}

// NewServer creates a new API server wired to the given stores.
func NewServer(config *Config, invoices store.InvoiceStore, transfers store.TransferStore, ledger store.LedgerStore, tenants store.CredentialStore) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:       config,
		router:       router,
		orchestrator: transfer.NewOrchestrator(invoices, transfers, ledger, tenants),
		poller:       transfer.NewPoller(transfers, tenants),
		invoices:     invoices,
		transfers:    transfers,
		compiler:     ubl.NewCompiler(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices/:id/send", s.handleSend)
		v1.POST("/invoices/:id/status", s.handleStatus)
		v1.POST("/invoices/:id/cancel", s.handleCancel)
		v1.GET("/invoices/:id/qr", s.handleQR)
		v1.POST("/transfers/poll", s.handlePoll)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSend(c *gin.Context) {
	// An absent or empty body means default options.
	var req SendRequest
	_ = c.ShouldBindJSON(&req)

	out, err := s.orchestrator.Submit(c.Request.Context(), c.Param("id"), transfer.SubmitOptions{
		Force:         req.Force,
		CustomerAlias: req.CustomerAlias,
		MailAddresses: req.MailAddresses,
		GsmNumber:     req.GsmNumber,
	})
	if err != nil {
		s.writeError(c, err, out)
		return
	}

	c.JSON(http.StatusOK, recordResponse(out.Record))
}

func (s *Server) handleStatus(c *gin.Context) {
	rec, err := s.poller.Check(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, recordResponse(rec))
}

func (s *Server) handleCancel(c *gin.Context) {
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	rec, err := s.orchestrator.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, recordResponse(rec))
}

// handleQR renders the verification QR for an issued invoice as a PNG.
// The invoice must have been submitted at least once so the document
// identifier and legal number exist.
func (s *Server) handleQR(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil || size < 64 || size > 1024 {
		size = 256
	}

	inv, err := s.invoices.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	rec, err := s.transfers.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	if rec.DocumentID == "" {
		s.writeError(c, &model.ValidationError{Field: "document_id", Message: "invoice has not been submitted yet"}, nil)
		return
	}
	inv.LegalNumber = rec.LegalNumber

	xml, err := s.compiler.Build(inv, rec.DocumentID)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	payload, err := qr.VerificationPayload(inv, rec.DocumentID, xml)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	png, err := qr.PNG(payload, size)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handlePoll(c *gin.Context) {
	var req PollRequest
	_ = c.ShouldBindJSON(&req)
	if req.Limit <= 0 {
		req.Limit = 100
	}

	checked, err := s.poller.CheckPending(c.Request.Context(), req.Limit)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, PollResponse{Checked: checked})
}

// writeError maps domain errors onto HTTP statuses. Conflicts carry the
// current transfer state so the caller can offer an informed resend.
func (s *Server) writeError(c *gin.Context, err error, out *transfer.SubmitOutcome) {
	var ce *model.ConflictError
	if errors.As(err, &ce) {
		c.JSON(http.StatusConflict, ConflictResponse{
			Error:         err.Error(),
			Status:        string(ce.Status),
			TransferID:    ce.TransferID,
			LastCheckedAt: ce.LastCheckedAt,
			Forcible:      ce.Forcible,
		})
		return
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Field: ve.Field})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	if out != nil && out.Record != nil {
		r := recordResponse(out.Record)
		resp.Record = &r
	}
	c.JSON(http.StatusBadGateway, resp)
}
