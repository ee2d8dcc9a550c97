package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/config"
	"github.com/pettyapp/go-petty-backend/internal/identity"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

type staticVerifier struct {
	id identity.Identity
}

func (v staticVerifier) Verify(_ context.Context, idToken string) (identity.Identity, error) {
	if idToken == "" {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return v.id, nil
}

type nullUploader struct{}

func (nullUploader) Upload(_ context.Context, _ []byte, path, _ string) (string, error) {
	return "test://" + path, nil
}

func testConfig() config.Config {
	return config.Config{
		Port:              "0",
		ReadTimeout:       time.Second,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		MaxHeaderBytes:    1 << 20,
		APIBasePath:       "/api/v1",
		RateRPS:           1000,
		RateBurst:         1000,
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v := staticVerifier{id: identity.Identity{UID: "uid-alice", Email: "alice@x.com"}}
	RegisterRoutes(r, store.NewMemory(), v, nullUploader{}, testConfig())
	return r
}

func TestHealth(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNoRoute_JSONEnvelope(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/definitely-not-a-route", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["code"] != "not_found" {
		t.Fatalf("code = %v", resp["code"])
	}
}

func TestAPI_RequiresAuth(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", w.Code)
	}
}

func TestAPI_AuthenticatedRequestReachesHandlers(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
