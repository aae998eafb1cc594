package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/norun9/gomarketplace-cart/cartstore"
)

func newTestRouter(t *testing.T) (http.Handler, *cartstore.CartStore, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	store := cartstore.New(context.Background(), cartstore.NewLocalBlobStore())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store.Close(ctx)
	})
	return NewRouter(store, logger), store, hook
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, cartResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp cartResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return rec, resp
}

func TestCartHandlerFlow(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec, resp := do(t, h, http.MethodGet, "/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /cart status = %d", rec.Code)
	}
	if len(resp.Products) != 0 || resp.TotalItems != 0 {
		t.Fatalf("GET /cart = %+v, want empty", resp)
	}

	widget := `{"id":"p1","title":"Widget","image_url":"u","price":10}`
	gadget := `{"id":"p2","title":"Gadget","image_url":"v","price":2.5}`
	do(t, h, http.MethodPost, "/cart/items", widget)
	do(t, h, http.MethodPost, "/cart/items", gadget)
	_, resp = do(t, h, http.MethodPost, "/cart/items", widget)

	want := cartstore.Cart{
		{Product: cartstore.Product{ID: "p1", Title: "Widget", ImageURL: "u", Price: 10}, Quantity: 2},
		{Product: cartstore.Product{ID: "p2", Title: "Gadget", ImageURL: "v", Price: 2.5}, Quantity: 1},
	}
	if diff := cmp.Diff(want, resp.Products); diff != "" {
		t.Fatalf("after adds (-want +got):\n%s", diff)
	}
	if resp.TotalItems != 3 {
		t.Errorf("total_items = %d, want 3", resp.TotalItems)
	}

	_, resp = do(t, h, http.MethodPost, "/cart/items/p2/increment", "")
	want[1].Quantity = 2
	if diff := cmp.Diff(want, resp.Products); diff != "" {
		t.Fatalf("after increment (-want +got):\n%s", diff)
	}

	do(t, h, http.MethodPost, "/cart/items/p1/decrement", "")
	_, resp = do(t, h, http.MethodPost, "/cart/items/p1/decrement", "")
	if diff := cmp.Diff(want[1:], resp.Products); diff != "" {
		t.Fatalf("after decrements (-want +got):\n%s", diff)
	}

	rec, resp = do(t, h, http.MethodPost, "/cart/items/unknown/decrement", "")
	if rec.Code != http.StatusOK {
		t.Errorf("decrement unknown status = %d, want 200", rec.Code)
	}
	if diff := cmp.Diff(want[1:], resp.Products); diff != "" {
		t.Errorf("after unknown decrement (-want +got):\n%s", diff)
	}
}

func TestCartHandlerRejectsBadInput(t *testing.T) {
	h, store, _ := newTestRouter(t)

	for _, body := range []string{`not json`, `{"title":"no id"}`, `{"id":"   "}`} {
		rec, _ := do(t, h, http.MethodPost, "/cart/items", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST /cart/items %q status = %d, want 400", body, rec.Code)
		}
	}
	if got := store.Products(); len(got) != 0 {
		t.Errorf("products = %+v, want empty", got)
	}
}

func TestCartHandlerSetsRequestID(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec, _ := do(t, h, http.MethodGet, "/cart", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want caller's id", got)
	}
}

func TestCartHandlerWithoutStore(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	h := NewCartHandler(logger)

	rec := httptest.NewRecorder()
	h.getCart(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != cartstore.ErrNoStore.Error() {
		t.Errorf("error = %q, want %q", resp.Error, cartstore.ErrNoStore.Error())
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.ErrorLevel {
		t.Errorf("last log entry = %+v, want an error", entry)
	}
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
