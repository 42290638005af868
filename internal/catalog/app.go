package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCatalog/pkg/kit"
)

const msgNotFound = "Producto no encontrado"

// Reader is the part of the catalog the HTTP API serves.
type Reader interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, error)
	Ping(ctx context.Context) error
}

type Server struct {
	Store Reader
	Log   *zap.Logger
}

// Routes builds the catalog router. productMW wraps only the /products routes, so
// health checks stay reachable when it rejects a client.
func (s *Server) Routes(productMW ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(productMW...)
		pr.Get("/products", s.list)
		pr.Get("/products/{id}", s.get)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	kit.Annotate(r, zap.String("outcome", Outcome(err)))
	if err != nil {
		if s.Log != nil {
			s.Log.Error("list products failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if n, ok := parseLimit(r.URL.Query().Get("limit")); ok && n < len(products) {
		products = products[:n]
	}
	kit.Annotate(r, zap.Int("count", len(products)))
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.Annotate(r, zap.String("outcome", OutcomeNotFound), zap.String("id", raw))
		kit.WriteError(w, r, http.StatusNotFound, msgNotFound, nil)
		return
	}

	p, err := s.Store.Get(r.Context(), id)
	kit.Annotate(r, zap.String("outcome", Outcome(err)), zap.Int("id", id))
	if errors.Is(err, ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, msgNotFound, nil)
		return
	}
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get product failed", zap.Error(err), zap.Int("id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

// parseLimit accepts only non-negative base-10 integers.
func parseLimit(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
