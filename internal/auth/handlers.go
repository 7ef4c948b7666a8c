package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RegisterHandler creates an account and signs the user in.
// POST /auth/register
func RegisterHandler(dbx *sql.DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(secret) == 0 {
			http.Error(w, "auth not configured", http.StatusServiceUnavailable)
			return
		}

		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email & password required", http.StatusBadRequest)
			return
		}

		var exists int
		err := dbx.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM users WHERE email=$1`, body.Email,
		).Scan(&exists)
		if err == nil && exists > 0 {
			http.Error(w, "email already exists", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}

		var id int
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO users (email, password)
			VALUES ($1, $2)
			RETURNING id
		`, body.Email, string(hash)).Scan(&id)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		token, err := GenerateToken(secret, id)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: token})
	}
}

// LoginHandler exchanges credentials for a token.
// POST /auth/login
func LoginHandler(dbx *sql.DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(secret) == 0 {
			http.Error(w, "auth not configured", http.StatusServiceUnavailable)
			return
		}

		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var id int
		var hash string
		err := dbx.QueryRowContext(r.Context(),
			`SELECT id, password FROM users WHERE email=$1`, body.Email,
		).Scan(&id, &hash)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		token, err := GenerateToken(secret, id)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: token})
	}
}

// MeHandler returns the current session's user.
// GET /auth/me (behind the middleware)
func MeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var email string
		err := dbx.QueryRowContext(r.Context(),
			`SELECT email FROM users WHERE id=$1`, uid,
		).Scan(&email)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    uid,
			"email": email,
		})
	}
}
