package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom/internal/classroom/adapter/identity"
	"classroom/internal/classroom/adapter/inmem"
	"classroom/internal/classroom/adapter/jwtverify"
	"classroom/internal/classroom/httpapi"
	"classroom/internal/classroom/middleware"
	"classroom/internal/classroom/repository"
	"classroom/internal/platform/server"
	"classroom/internal/testutil"
)

type env struct {
	baseURL string
	store   *inmem.Store
	sign    func(t *testing.T, claims testutil.TokenClaims, ttl time.Duration) string
}

// startAPI wires the real components — JWKS-backed verifier, in-memory store,
// fixed-window limiter — behind a live listener.
func startAPI(t *testing.T, rateMax int) *env {
	t.Helper()

	kid, priv, pub := testutil.GenerateTestKeyPair(t)
	jwksSrv := httptest.NewServer(testutil.MockJWKSHandler(kid, pub))
	t.Cleanup(jwksSrv.Close)

	claimsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/admin/claims" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(claimsSrv.Close)

	store := inmem.NewStore()
	router := httpapi.NewRouter(httpapi.Deps{
		Repo:            repository.New(store, nil),
		Verifier:        jwtverify.New(jwksSrv.URL, time.Minute),
		Claims:          identity.NewClient(claimsSrv.URL),
		Limiter:         inmem.NewRateLimiter(rateMax, time.Minute, time.Now),
		RateLimitWindow: time.Minute,
		Version:         "integration",
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	mux := http.NewServeMux()
	mux.Handle("/", middleware.Chain(
		router,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.MaxBodySize(1<<20),
	))

	addr := freeAddr(t)
	srv := server.New(addr, mux)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)

	baseURL := "http://" + addr
	waitForReady(t, baseURL+"/api/v1/health")

	return &env{
		baseURL: baseURL,
		store:   store,
		sign: func(t *testing.T, claims testutil.TokenClaims, ttl time.Duration) string {
			return testutil.IssueTestToken(t, kid, priv, claims, ttl)
		},
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func waitForReady(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not become ready at %s", url)
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func call(t *testing.T, method, url, token, body string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var e envelope
	if len(raw) > 0 {
		json.Unmarshal(raw, &e)
	}
	return resp, e
}

func TestStudentCRUDFlow(t *testing.T) {
	api := startAPI(t, 1000)

	adminToken := api.sign(t, testutil.TokenClaims{SubjectID: "admin-1", Role: "admin"}, 15*time.Minute)
	studentToken := api.sign(t, testutil.TokenClaims{SubjectID: "student-9", Role: "student"}, 15*time.Minute)

	var id string

	t.Run("admin creates a student", func(t *testing.T) {
		resp, env := call(t, http.MethodPost, api.baseURL+"/api/v1/student", adminToken,
			`{"name":"Michael Scott","email":"m@x.com","GPA":1.2}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if env.Status != "success" || env.Message != "Student created" {
			t.Errorf("unexpected envelope: %+v", env)
		}
		var data map[string]any
		json.Unmarshal(env.Data, &data)
		if data["name"] != "Michael Scott" || data["email"] != "m@x.com" || data["GPA"] != 1.2 {
			t.Errorf("unexpected data: %v", data)
		}
		var ok bool
		id, ok = data["id"].(string)
		if !ok || id == "" {
			t.Fatal("expected generated id")
		}
	})

	t.Run("student role cannot read the record", func(t *testing.T) {
		resp, env := call(t, http.MethodGet, api.baseURL+"/api/v1/student/"+id, studentToken, "")
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
		if env.Code != "INSUFFICIENT_ROLE" {
			t.Errorf("expected INSUFFICIENT_ROLE, got %q", env.Code)
		}
	})

	t.Run("missing token is rejected with TOKEN_NOT_FOUND", func(t *testing.T) {
		resp, env := call(t, http.MethodGet, api.baseURL+"/api/v1/student/"+id, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		if env.Code != "TOKEN_NOT_FOUND" || env.Message != "Unauthorized: No token provided" {
			t.Errorf("unexpected envelope: %+v", env)
		}
	})

	t.Run("expired token is rejected with TOKEN_EXPIRED", func(t *testing.T) {
		expired := api.sign(t, testutil.TokenClaims{SubjectID: "admin-1", Role: "admin"}, -time.Hour)
		resp, env := call(t, http.MethodGet, api.baseURL+"/api/v1/student/"+id, expired, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		if env.Code != "TOKEN_EXPIRED" {
			t.Errorf("expected TOKEN_EXPIRED, got %q", env.Code)
		}
	})

	t.Run("unknown id is a resource-specific 404", func(t *testing.T) {
		resp, env := call(t, http.MethodGet, api.baseURL+"/api/v1/student/no-such-id", adminToken, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if env.Code != "STUDENT_NOT_FOUND" || env.Message != "student not found" {
			t.Errorf("unexpected envelope: %+v", env)
		}
	})

	t.Run("invalid body is rejected by validation", func(t *testing.T) {
		resp, env := call(t, http.MethodPost, api.baseURL+"/api/v1/student", adminToken,
			`{"name":"No Email","GPA":5.5}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if env.Code != "VALIDATION_ERROR" {
			t.Errorf("expected VALIDATION_ERROR, got %q", env.Code)
		}
	})
}

func TestSameUserReadsOwnRecord(t *testing.T) {
	api := startAPI(t, 1000)

	// Seed a user document keyed by the caller's subject id; the token
	// carries no role at all.
	if err := api.store.Set(context.Background(), "users", "self-1",
		map[string]any{"name": "Self Service", "email": "s@x.com"}); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	token := api.sign(t, testutil.TokenClaims{SubjectID: "self-1"}, 15*time.Minute)

	resp, env := call(t, http.MethodGet, api.baseURL+"/api/v1/user/self-1", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %+v", resp.StatusCode, env)
	}
	var data map[string]any
	json.Unmarshal(env.Data, &data)
	if data["name"] != "Self Service" {
		t.Errorf("unexpected data: %v", data)
	}

	resp, env = call(t, http.MethodGet, api.baseURL+"/api/v1/user/other-2", token, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another record, got %d", resp.StatusCode)
	}
	if env.Code != "ROLE_NOT_FOUND" {
		t.Errorf("expected ROLE_NOT_FOUND, got %q", env.Code)
	}
}

func TestSetCustomClaimsEndToEnd(t *testing.T) {
	api := startAPI(t, 1000)

	adminToken := api.sign(t, testutil.TokenClaims{SubjectID: "admin-1", Role: "admin"}, 15*time.Minute)
	teacherToken := api.sign(t, testutil.TokenClaims{SubjectID: "teacher-1", Role: "teacher"}, 15*time.Minute)

	resp, env := call(t, http.MethodPost, api.baseURL+"/api/v1/admin/setCustomClaims", adminToken,
		`{"uid":"newuser","role":"student"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %+v", resp.StatusCode, env)
	}
	if env.Message != "Custom claims set" {
		t.Errorf("unexpected message %q", env.Message)
	}

	resp, _ = call(t, http.MethodPost, api.baseURL+"/api/v1/admin/setCustomClaims", teacherToken,
		`{"uid":"newuser","role":"admin"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
}

func TestRateLimitAcrossRealListener(t *testing.T) {
	api := startAPI(t, 2)

	token := api.sign(t, testutil.TokenClaims{SubjectID: "admin-1", Role: "admin"}, 15*time.Minute)

	var last *http.Response
	for i := 0; i < 3; i++ {
		resp, _ := call(t, http.MethodGet, api.baseURL+"/api/v1/course", token, "")
		last = resp
	}

	if last.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", last.StatusCode)
	}
	if last.Header.Get("RateLimit-Limit") != "2" {
		t.Errorf("expected RateLimit-Limit 2, got %q", last.Header.Get("RateLimit-Limit"))
	}
	if last.Header.Get("RateLimit-Remaining") != "0" {
		t.Errorf("expected RateLimit-Remaining 0, got %q", last.Header.Get("RateLimit-Remaining"))
	}
	if last.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Health stays reachable regardless of quota.
	resp, err := http.Get(api.baseURL + "/api/v1/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected health 200, got %d", resp.StatusCode)
	}
	var health map[string]any
	json.NewDecoder(resp.Body).Decode(&health)
	if health["status"] != "OK" || health["version"] != "integration" {
		t.Errorf("unexpected health payload: %v", health)
	}
}
