package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

// LogoutHandler ends the session. JWT is stateless, so there is
// nothing to revoke server-side; the client discards its token.
// POST /auth/logout
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

// DeleteAccountHandler removes the user and everything they own.
// Dreams cascade from the users row; analytics events carry no
// foreign key and are cleared explicitly.
// DELETE /auth/account (behind the middleware)
func DeleteAccountHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(`DELETE FROM analytics_events WHERE user_id = $1`, uid); err != nil {
			http.Error(w, "delete analytics_events failed", http.StatusInternalServerError)
			return
		}

		if _, err := tx.Exec(`DELETE FROM users WHERE id = $1`, uid); err != nil {
			http.Error(w, "delete user failed", http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
