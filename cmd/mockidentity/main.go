// mockidentity is a development identity provider: it issues RS256 JWTs
// carrying a role custom claim, publishes its key on a JWKS endpoint and
// accepts role-claim assignments on its admin API. Never run it in
// production.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classroom/internal/platform/server"
)

type account struct {
	password string
	role     string
}

func main() {
	addr := envOr("IDENTITY_ADDR", ":8081")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Generate RSA key pair
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		slog.Error("generating RSA key", "error", err)
		os.Exit(1)
	}
	kid := fmt.Sprintf("mock-key-%d", time.Now().Unix())

	// Seed users. Roles can be reassigned through the admin endpoint.
	var mu sync.Mutex
	users := map[string]*account{
		"admin":   {password: "admin", role: "admin"},
		"teacher": {password: "teacher", role: "teacher"},
		"student": {password: "student", role: "student"},
		"newuser": {password: "newuser"},
	}

	slog.Info("mock identity service starting",
		"addr", addr,
		"kid", kid,
		"users", "admin:admin, teacher:teacher, student:student, newuser:newuser",
	)

	mux := http.NewServeMux()

	// JWKS endpoint
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		pub := &priv.PublicKey
		jwks := map[string]any{
			"keys": []map[string]any{
				{
					"kty": "RSA",
					"alg": "RS256",
					"use": "sig",
					"kid": kid,
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	})

	// Token issuance
	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}

		mu.Lock()
		acct, ok := users[req.Username]
		var role string
		if ok {
			role = acct.role
		}
		mu.Unlock()
		if !ok || acct.password != req.Password {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}

		ttl := 15 * time.Minute
		now := time.Now()

		claims := jwt.MapClaims{
			"sub": req.Username,
			"iat": now.Unix(),
			"exp": now.Add(ttl).Unix(),
			"iss": "mock-identity",
		}
		if role != "" {
			claims["role"] = role
		}

		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = kid

		signed, err := token.SignedString(priv)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to sign token")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": signed,
			"expires_in":   int(ttl.Seconds()),
			"token_type":   "Bearer",
		})
	})

	// Role claim administration. Takes effect on the next issued token.
	mux.HandleFunc("POST /admin/claims", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID  string `json:"uid"`
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}

		mu.Lock()
		acct, ok := users[req.UID]
		if ok {
			acct.role = req.Role
		}
		mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "no such user")
			return
		}

		slog.Info("role claim assigned", "uid", req.UID, "role", req.Role)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "mock-identity"})
	})

	srv := server.New(addr, mux)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
