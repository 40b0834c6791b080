// Package webapi provides the management REST API: spam checks, example
// management, balance queries and external payment confirmations. It is a
// thin JSON layer over the classifier and the storage, protected with basic
// auth and rate limited.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umnov/tg-neuromod/app/bot"
	"github.com/umnov/tg-neuromod/app/storage"
)

// Server is a web API server.
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version       string           // version to show in /ping
	ListenAddr    string           // listen address
	Classifier    Classifier       // spam classifier
	Examples      ExamplesStore    // labeled examples storage
	Ledger        LedgerStore      // credits and transactions
	Payments      PaymentProcessor // external payment confirmations
	SpamThreshold int              // scores above it mean spam, default 50
	AuthPasswd    string           // basic auth password for user "neuromod"
	Dbg           bool             // debug mode
}

// Classifier scores a message, positive score means spam
type Classifier interface {
	Check(ctx context.Context, req bot.ClassifyRequest) (int, error)
}

// ExamplesStore is a subset of the examples storage used by the api
type ExamplesStore interface {
	Read(ctx context.Context, adminID int64) ([]storage.Example, error)
	Add(ctx context.Context, adminID int64, ex storage.Example) error
	Delete(ctx context.Context, adminID int64, text string) (bool, error)
	Stats(ctx context.Context) (*storage.ExamplesStats, error)
}

// LedgerStore is a subset of the ledger storage used by the api
type LedgerStore interface {
	Credits(ctx context.Context, adminID int64) (int, error)
	SpentLastWeek(ctx context.Context, adminID int64) (int, error)
	Transactions(ctx context.Context, adminID int64) ([]storage.Transaction, error)
}

// PaymentProcessor confirms payments made outside of telegram
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, adminID int64, amount int) error
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	if config.SpamThreshold == 0 {
		config.SpamThreshold = 50
	}
	return &Server{Config: config}
}

// Run starts the server and accepts requests until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("tg-neuromod", "umnov", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(tollbooth.NewLimiter(50, nil)))
	router.Use(rest.SizeLimit(1024 * 1024)) // 1M max request size

	if s.AuthPasswd != "" {
		router.Use(rest.BasicAuthWithUserPasswd("neuromod", s.AuthPasswd))
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	s.routes(router)

	srv := &http.Server{Addr: s.ListenAddr, Handler: router, ReadTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes(router *routegroup.Bundle) {
	router.HandleFunc("POST /check", s.checkHandler)

	router.HandleFunc("GET /examples", s.getExamplesHandler)
	router.HandleFunc("POST /examples", s.addExampleHandler)
	router.HandleFunc("DELETE /examples", s.deleteExampleHandler)
	router.HandleFunc("GET /examples/stats", s.examplesStatsHandler)

	router.HandleFunc("GET /balance", s.balanceHandler)
	router.HandleFunc("POST /payment", s.paymentHandler)
}

// checkHandler handles POST /check request.
// it scores the message text and returns the spam flag with the confidence.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Text    string `json:"text"`
		Name    string `json:"name"`
		Bio     string `json:"bio"`
		AdminID int64  `json:"admin_id"`
	}{}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode check request: %v", err)
		return
	}

	score, err := s.Classifier.Check(r.Context(),
		bot.ClassifyRequest{Text: req.Text, Name: req.Name, Bio: req.Bio, AdminID: req.AdminID})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't check message", "details": err.Error()})
		return
	}
	// the same threshold test the moderator applies, a positive score alone is not spam
	rest.RenderJSON(w, rest.JSON{"spam": score > s.SpamThreshold, "score": score})
}

// getExamplesHandler handles GET /examples?admin_id=N request. It returns the
// examples visible in the admin's scope, global ones included.
func (s *Server) getExamplesHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := queryInt64(r, "admin_id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "bad admin_id", "details": err.Error()})
		return
	}

	examples, err := s.Examples.Read(r.Context(), adminID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get examples", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"examples": examples, "count": len(examples)})
}

// addExampleHandler handles POST /examples request, upserts a labeled example
func (s *Server) addExampleHandler(w http.ResponseWriter, r *http.Request) {
	var ex storage.Example
	if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		return
	}

	if err := s.Examples.Add(r.Context(), ex.AdminID, ex); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't add example", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"added": true, "text": ex.Text})
}

// deleteExampleHandler handles DELETE /examples request
func (s *Server) deleteExampleHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		AdminID int64  `json:"admin_id"`
		Text    string `json:"text"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		return
	}

	deleted, err := s.Examples.Delete(r.Context(), req.AdminID, req.Text)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't delete example", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"deleted": deleted})
}

// examplesStatsHandler handles GET /examples/stats request
func (s *Server) examplesStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Examples.Stats(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get stats", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, stats)
}

// balanceHandler handles GET /balance?admin_id=N request. It returns the
// current balance, last week spending and the recent transactions.
func (s *Server) balanceHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := queryInt64(r, "admin_id")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "bad admin_id", "details": err.Error()})
		return
	}

	credits, err := s.Ledger.Credits(r.Context(), adminID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get balance", "details": err.Error()})
		return
	}
	spent, err := s.Ledger.SpentLastWeek(r.Context(), adminID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get spending", "details": err.Error()})
		return
	}
	txs, err := s.Ledger.Transactions(r.Context(), adminID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get transactions", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"admin_id": adminID, "credits": credits,
		"spent_last_week": spent, "transactions": txs})
}

// paymentHandler handles POST /payment request, confirms a payment made
// outside of telegram. The referral commission is paid the same way as for
// the stars payments.
func (s *Server) paymentHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		AdminID int64 `json:"admin_id"`
		Amount  int   `json:"amount"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		return
	}
	if req.Amount <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "amount must be positive"})
		return
	}

	if err := s.Payments.ProcessPayment(r.Context(), req.AdminID, req.Amount); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't process payment", "details": err.Error()})
		return
	}
	log.Printf("[INFO] webapi payment of %d processed for %d", req.Amount, req.AdminID)
	rest.RenderJSON(w, rest.JSON{"processed": true, "admin_id": req.AdminID, "amount": req.Amount})
}

func queryInt64(r *http.Request, name string) (int64, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	res, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %w", name, err)
	}
	return res, nil
}
