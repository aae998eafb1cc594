package services

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/norun9/gomarketplace-cart/cartstore"
)

type cartResponse struct {
	Products   cartstore.Cart `json:"products"`
	TotalItems int            `json:"total_items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CartHandler serves the cart over HTTP. The CartStore is taken from the
// request context, see StoreMiddleware.
type CartHandler struct {
	log logrus.FieldLogger
}

// NewCartHandler constructor.
func NewCartHandler(log logrus.FieldLogger) *CartHandler {
	return &CartHandler{log: log}
}

// NewRouter wires the cart routes and middleware around store.
func NewRouter(store *cartstore.CartStore, log logrus.FieldLogger) *mux.Router {
	h := NewCartHandler(log)

	r := mux.NewRouter()
	r.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	r.HandleFunc("/cart/items", h.addToCart).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id}/increment", h.increment).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id}/decrement", h.decrement).Methods(http.MethodPost)
	r.HandleFunc("/_healthz", func(w http.ResponseWriter, req *http.Request) {
		if !store.Ping(req.Context()) {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	r.Use(otelmux.Middleware("cartservice"))
	r.Use(RequestIDMiddleware(log))
	r.Use(StoreMiddleware(store))
	return r
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.writeCart(w, r, store)
}

func (h *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var p cartstore.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.renderError(w, r, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		h.renderError(w, r, errors.New("product id is required"), http.StatusBadRequest)
		return
	}

	store.AddToCart(r.Context(), p)
	h.writeCart(w, r, store)
}

func (h *CartHandler) increment(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Increment(r.Context(), mux.Vars(r)["id"])
	h.writeCart(w, r, store)
}

func (h *CartHandler) decrement(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Decrement(r.Context(), mux.Vars(r)["id"])
	h.writeCart(w, r, store)
}

// store resolves the CartStore for r. A missing store is a wiring bug and is
// answered with 500.
func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cartstore.CartStore, bool) {
	store, err := cartstore.FromContext(r.Context())
	if err != nil {
		h.renderError(w, r, err, http.StatusInternalServerError)
		return nil, false
	}
	return store, true
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, store *cartstore.CartStore) {
	products := store.Products()
	h.renderJSON(w, r, http.StatusOK, cartResponse{
		Products:   products,
		TotalItems: products.TotalItems(),
	})
}

func (h *CartHandler) renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	log := requestLogger(r, h.log).WithError(err).WithField("status", code)
	if code >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	h.renderJSON(w, r, code, errorResponse{Error: err.Error()})
}

func (h *CartHandler) renderJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r, h.log).WithError(err).Warn("failed to write response")
	}
}
