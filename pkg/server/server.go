package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/japaniel/reviewgen/pkg/markov"
)

const notFoundBody = "Word not found"

// Generator is the read side of Model used by the handlers.
type Generator interface {
	Ready() bool
	Generate(seed string) (markov.Result, error)
}

type response struct {
	Word        string   `json:"word"`
	Text        string   `json:"text,omitempty"`
	Truncated   bool     `json:"truncated,omitempty"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// NewHandler routes GET /api/{word} and GET /healthz.
func NewHandler(g Generator, logger *log.Logger) http.Handler {
	h := &handler{gen: g, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{word}", h.generate)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

type handler struct {
	gen    Generator
	logger *log.Logger
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	asJSON := wantsJSON(r)

	res, err := h.gen.Generate(word)
	if errors.Is(err, markov.ErrNotTrained) {
		http.Error(w, "model is still training", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("generate %q: %v", word, err)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !res.Found {
		if asJSON {
			writeJSON(w, http.StatusNotFound, response{Word: word, Error: notFoundBody, Suggestions: res.Suggestions})
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
		return
	}

	if h.logger != nil && res.Truncated {
		h.logger.Printf("generate %q: truncated after %d steps", word, res.Steps)
	}
	if asJSON {
		writeJSON(w, http.StatusOK, response{Word: word, Text: res.Text, Truncated: res.Truncated})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(res.Text))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !h.gen.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("training"))
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves h on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if logger != nil {
			logger.Printf("Listening on %s", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
