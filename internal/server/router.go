package server

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/documents"
	"github.com/nexbill/payments/internal/handlers"
	"github.com/nexbill/payments/internal/httpx"
	"github.com/nexbill/payments/internal/payments"
	"github.com/nexbill/payments/internal/receipts"
	"github.com/nexbill/payments/internal/recon"
)

// New constructs the root http.Handler: one uniform payment route set per
// document family plus health endpoints.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	registry := documents.NewRegistry()
	store := payments.NewStore(db)
	engine := recon.NewEngine(db, store, registry)
	assembler := receipts.NewAssembler(db, store, registry)

	for _, a := range registry.All() {
		h := handlers.NewPaymentHandler(db, a, engine, store, assembler)
		base := "/" + a.RoutePrefix + "-payments"
		mux.HandleFunc("POST "+base, h.Create)
		mux.HandleFunc("GET "+base+"/by-parent/{parentID}", h.ListByParent)
		mux.HandleFunc("GET "+base+"/export/by-parent/{parentID}", h.Export)
		mux.HandleFunc("GET "+base+"/{id}", h.Get)
		mux.HandleFunc("PUT "+base+"/{id}", h.Update)
		mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
		mux.HandleFunc("PUT "+base+"/{id}/status", h.UpdateStatus)
		mux.HandleFunc("GET "+base+"/{id}/receipt", h.Receipt)
	}

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
