package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/safecert/whitecard-trainer/internal/analysis"
	api "github.com/safecert/whitecard-trainer/internal/api/http"
	"github.com/safecert/whitecard-trainer/internal/auth"
	"github.com/safecert/whitecard-trainer/internal/config"
	"github.com/safecert/whitecard-trainer/internal/db"
	"github.com/safecert/whitecard-trainer/internal/forum"
	"github.com/safecert/whitecard-trainer/internal/rbac"
	"github.com/safecert/whitecard-trainer/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh, cfg.DBDriver)

	if err := auth.EnsureAdmin(ctx, st, cfg.AdminEmail, cfg.AdminPassHash); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}

	// --- Services ---
	authSvc := auth.NewService(cfg.AuthSecret)
	forumSvc := forum.NewService(st)
	registry := api.NewRegistry()

	var analyzer analysis.Analyzer
	if cfg.OpenAIKey != "" {
		opts := []analysis.ClientOption{}
		if cfg.OpenAIModel != "" {
			opts = append(opts, analysis.WithModel(cfg.OpenAIModel))
		}
		analyzer = analysis.NewClient(cfg.OpenAIKey, opts...)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, st))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/auth/me", auth.MeHandler())

		// Question bank, trainee-facing
		pr.With(rbac.Require("question:view")).
			Get("/topics", api.ListTopicsHandler(st))
		pr.With(rbac.Require("question:view")).
			Get("/exam/info", api.ExamInfoHandler(st))

		// Session lifecycle
		pr.With(rbac.Require("session:run")).Route("/sessions", func(sr chi.Router) {
			sr.Post("/", api.StartSessionHandler(registry, st, st))
			sr.Get("/{sessionID}", api.GetSessionStateHandler(registry))
			sr.Post("/{sessionID}/answers", api.SubmitAnswerHandler(registry))
			sr.Post("/{sessionID}/advance", api.AdvanceHandler(registry))
			sr.Put("/{sessionID}/selections", api.SelectHandler(registry))
			sr.Post("/{sessionID}/navigate", api.NavigateHandler(registry))
			sr.Post("/{sessionID}/finish", api.FinishSessionHandler(registry))
		})

		// Reports
		pr.With(rbac.Require("report:view")).
			Get("/reports", api.ListReportsHandler(st))
		pr.With(rbac.Require("report:view")).
			Get("/reports/dashboard", api.DashboardHandler(st))
		pr.With(rbac.Require("report:view")).
			Get("/reports/{sessionID}", api.SessionReportHandler(st))
		pr.With(rbac.Require("analysis:run")).
			Post("/reports/compare", api.CompareReportsHandler(st, analyzer))

		// Forum
		pr.With(rbac.RequireAny("forum:read", "forum:write")).
			Get("/forum/categories", api.ForumCategoriesHandler())
		pr.With(rbac.RequireAny("forum:read", "forum:write")).
			Get("/forum/posts", api.ListPostsHandler(forumSvc))
		pr.With(rbac.Require("forum:write")).
			Post("/forum/posts", api.CreatePostHandler(forumSvc))
		pr.With(rbac.RequireAny("forum:read", "forum:write")).
			Get("/forum/posts/{postID}", api.ViewPostHandler(forumSvc))
		pr.With(rbac.RequireAny("forum:read", "forum:write")).
			Get("/forum/posts/{postID}/comments", api.ListCommentsHandler(forumSvc))
		pr.With(rbac.Require("forum:write")).
			Post("/forum/posts/{postID}/comments", api.CreateCommentHandler(forumSvc))

		// Admin question management
		pr.With(rbac.Require("question:manage")).Route("/admin/questions", func(ar chi.Router) {
			ar.Get("/", api.ListQuestionsHandler(st))
			ar.Post("/", api.CreateQuestionHandler(st))
			ar.Put("/{questionID}", api.UpdateQuestionHandler(st))
			ar.Delete("/{questionID}", api.DeleteQuestionHandler(st))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
