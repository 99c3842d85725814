package v1

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"shopcart-backend/internal/domain"
	"shopcart-backend/internal/infrastructure/cache"
	"shopcart-backend/internal/repository/memory"
	"shopcart-backend/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	store *usecase.CartStore
	mux   *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo, err := memory.NewDefaultCatalogRepository()
	require.NoError(t, err)
	catalogUC := usecase.NewCatalogUsecase(repo, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	store := usecase.NewCartStore(nil, nil)

	catalogHandler := NewCatalogHandler(catalogUC)
	cartHandler := NewCartHandler(store, catalogUC)
	eventsHandler := NewCartEventsHandler(store, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProductByID)
	mux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart)
	mux.HandleFunc("GET /api/v1/cart/count", cartHandler.GetCount)
	mux.HandleFunc("POST /api/v1/cart", cartHandler.AddToCart)
	mux.HandleFunc("DELETE /api/v1/cart/{productId}", cartHandler.RemoveFromCart)
	mux.HandleFunc("POST /api/v1/cart/{productId}/increase", cartHandler.IncreaseQuantity)
	mux.HandleFunc("POST /api/v1/cart/{productId}/decrease", cartHandler.DecreaseQuantity)
	mux.HandleFunc("GET /api/v1/cart/events", eventsHandler.Stream)

	return &testServer{store: store, mux: mux}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

type cartBody struct {
	Items []struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		Price     string `json:"price"`
		Quantity  int    `json:"quantity"`
		LineTotal string `json:"lineTotal"`
	} `json:"items"`
	ItemCount int    `json:"itemCount"`
	Subtotal  string `json:"subtotal"`
	Version   uint64 `json:"version"`
}

func decodeCart(t *testing.T, data []byte) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Data []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
			Price string `json:"price"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, "Wireless Headphones", body.Data[0].Title)
	assert.Equal(t, "59.99", body.Data[0].Price)
}

func TestGetProductByID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Smart Watch"`)

	rec = s.do(t, http.MethodGet, "/api/v1/products/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec.Body.Bytes())
	assert.Empty(t, cart.Items)
	assert.Equal(t, "0.00", cart.Subtotal)
	assert.Equal(t, uint64(0), cart.Version)

	rec = s.do(t, http.MethodPost, "/api/v1/cart", `{"productId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, "59.99", cart.Items[0].LineTotal)

	rec = s.do(t, http.MethodPost, "/api/v1/cart", `{"productId":1}`)
	cart = decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "119.98", cart.Items[0].LineTotal)
	assert.Equal(t, "119.98", cart.Subtotal)

	rec = s.do(t, http.MethodPost, "/api/v1/cart", `{"productId":2}`)
	cart = decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, "159.97", cart.Subtotal)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/1/decrease", "")
	cart = decodeCart(t, rec.Body.Bytes())
	assert.Equal(t, 1, cart.Items[0].Quantity)

	// floor of one
	rec = s.do(t, http.MethodPost, "/api/v1/cart/1/decrease", "")
	require.Equal(t, http.StatusOK, rec.Code)
	floor := decodeCart(t, rec.Body.Bytes())
	assert.Equal(t, 1, floor.Items[0].Quantity)
	assert.Equal(t, cart.Version, floor.Version)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/2/increase", "")
	cart = decodeCart(t, rec.Body.Bytes())
	assert.Equal(t, 2, cart.Items[1].Quantity)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/1", "")
	cart = decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].ID)
	assert.Equal(t, "79.98", cart.Subtotal)

	rec = s.do(t, http.MethodGet, "/api/v1/cart/count", "")
	assert.JSONEq(t, `{"itemCount":1}`, rec.Body.String())
}

func TestCartMutationsOnAbsentProductAreNoops(t *testing.T) {
	s := newTestServer(t)
	s.store.AddToCart(mustProduct(t, s, 3))
	before := s.store.Version()

	for _, path := range []string{"/api/v1/cart/99/increase", "/api/v1/cart/99/decrease"} {
		rec := s.do(t, http.MethodPost, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := s.do(t, http.MethodDelete, "/api/v1/cart/99", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec.Body.Bytes())
	require.Len(t, cart.Items, 1)
	assert.Equal(t, before, cart.Version)
	assert.Equal(t, before, s.store.Version())
}

func TestAddToCartRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown product", `{"productId":77}`, http.StatusNotFound},
		{"zero id", `{"productId":0}`, http.StatusBadRequest},
		{"missing id", `{}`, http.StatusBadRequest},
		{"not json", `productId=1`, http.StatusBadRequest},
		{"unknown field", `{"productId":1,"quantity":3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/cart", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
	assert.Equal(t, uint64(0), s.store.Version())
}

func TestCartPathRejectsNonIntegerID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/one/increase", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/cart/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartEventsStreamSnapshots(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/cart/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	first := readEvent(t, reader)
	assert.Equal(t, uint64(0), first.Version)
	assert.Empty(t, first.Items)

	rec := s.do(t, http.MethodPost, "/api/v1/cart", `{"productId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	second := readEvent(t, reader)
	assert.Equal(t, uint64(1), second.Version)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "39.99", second.Subtotal)
	assert.Equal(t, 1, second.ItemCount)
}

func readEvent(t *testing.T, r *bufio.Reader) cartBody {
	t.Helper()
	var data string
	done := make(chan error, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				done <- err
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && data != "":
				done <- nil
				return
			}
		}
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cart event")
	}
	return decodeCart(t, []byte(data))
}

func mustProduct(t *testing.T, s *testServer, id int) domain.Product {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/products/"+strconv.Itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}
