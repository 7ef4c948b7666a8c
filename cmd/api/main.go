package main

import (
	"log"
	"net/http"

	"github.com/rs/cors"

	"goalflow-backend/internal/ai"
	"goalflow-backend/internal/auth"
	"goalflow-backend/internal/config"
	"goalflow-backend/internal/db"
	"goalflow-backend/internal/dreams"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("failed to connect DB: ", err)
	}
	defer database.Close()
	log.Println("connected to PostgreSQL")

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Println("[WARN] JWT_SECRET is not set, auth endpoints will refuse requests")
	}

	oracle := ai.New(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OracleTimeout)
	store := dreams.NewPostgresStore(database)
	broker := dreams.NewBroker()
	handler := dreams.NewHandler(store, oracle, oracle, database, broker)

	mw := auth.NewMiddleware(secret)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("POST /auth/register", auth.RegisterHandler(database, secret))
	mux.HandleFunc("POST /auth/login", auth.LoginHandler(database, secret))
	mux.HandleFunc("POST /auth/logout", mw.Wrap(auth.LogoutHandler()))
	mux.HandleFunc("GET /auth/me", mw.Wrap(auth.MeHandler(database)))
	mux.HandleFunc("DELETE /auth/account", mw.Wrap(auth.DeleteAccountHandler(database)))

	// ----- DREAMS & TASKS -----
	mux.HandleFunc("POST /dreams", mw.Wrap(handler.CreateDream))
	mux.HandleFunc("GET /dreams", mw.Wrap(handler.ListDreams))
	mux.HandleFunc("GET /dreams/stream", mw.Wrap(dreams.StreamHandler(broker)))
	mux.HandleFunc("GET /dreams/{id}", mw.Wrap(handler.GetDream))
	mux.HandleFunc("DELETE /dreams/{id}", mw.Wrap(handler.DeleteDream))
	mux.HandleFunc("GET /dreams/{id}/matrix", mw.Wrap(handler.Matrix))
	mux.HandleFunc("POST /dreams/{id}/prioritize", mw.Wrap(handler.Prioritize))
	mux.HandleFunc("POST /dreams/{id}/tasks", mw.Wrap(handler.AddTasks))
	mux.HandleFunc("PUT /dreams/{id}/tasks/{taskID}", mw.Wrap(handler.UpdateTask))
	mux.HandleFunc("DELETE /dreams/{id}/tasks/{taskID}", mw.Wrap(handler.DeleteTask))
	mux.HandleFunc("POST /dreams/{id}/tasks/{taskID}/toggle", mw.Wrap(handler.ToggleTask))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Platform", "X-App-Version", "X-Session-Id", "Idempotency-Key"},
		AllowCredentials: true,
	})

	log.Println("API server is running on", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, c.Handler(mux)))
}
