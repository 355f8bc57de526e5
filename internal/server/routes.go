package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toolkithub/internal/handlers"
	"toolkithub/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.Cors(s.cfg.AllowedOrigins))
	r.Use(middlewares.Instrument)
	r.Use(s.ipLimiter.RateLimit)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.HelloWorldHandler).Methods("GET")
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.registerAuthRoutes(r)
	s.registerToolRoutes(r)
	s.registerRatingRoutes(r)
	s.registerCommentRoutes(r)
	s.registerBookmarkRoutes(r)
	s.registerCategoryRoutes(r)
	s.registerAdminRoutes(r)

	return r
}

// protected requires a user token or admin session and applies the
// per-user rate limit.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return s.auth.AuthMiddleware(s.userLimiter.RateLimit(h))
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return s.auth.AdminMiddleware(h)
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	ah := handlers.NewAuthHandler(s.authService, s.cfg.CookieSecure)

	r.HandleFunc("/api/auth/success", ah.AuthSuccess).Methods("GET")
	r.HandleFunc("/api/auth/error", ah.AuthError).Methods("GET")
	r.HandleFunc("/api/auth/logout", ah.Logout).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/{provider}", ah.ProviderAuth).Methods("GET")
	r.HandleFunc("/api/auth/{provider}/callback", ah.ProviderCallback).Methods("GET")
	r.Handle("/api/me", s.protected(uh.GetMyProfile)).Methods("GET", "OPTIONS")
}

func (s *Server) registerToolRoutes(r *mux.Router) {
	th := handlers.NewToolHandler(s.toolService, s.bookmarkService)

	r.Handle("/api/tools", s.auth.OptionalAuth(http.HandlerFunc(th.ListTools))).Methods("GET", "OPTIONS")
	r.Handle("/api/tools", s.protected(th.AddTool)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/tools/summary", th.GetSummary).Methods("GET", "OPTIONS")
	r.Handle("/api/tools/{id}", s.auth.OptionalAuth(http.HandlerFunc(th.GetTool))).Methods("GET", "OPTIONS")
	r.Handle("/api/tools/{id}", s.protected(th.UpdateTool)).Methods("PUT", "OPTIONS")
	r.Handle("/api/tools/{id}", s.protected(th.DeleteTool)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerRatingRoutes(r *mux.Router) {
	rh := handlers.NewRatingHandler(s.ratingService)

	r.Handle("/api/tools/{id}/ratings", s.protected(rh.AddRating)).Methods("POST", "OPTIONS")
	r.Handle("/api/tools/{id}/ratings/me", s.protected(rh.GetMyRating)).Methods("GET", "OPTIONS")
	r.Handle("/api/tools/{id}/ratings/me", s.protected(rh.UpdateRating)).Methods("PUT", "OPTIONS")
	r.Handle("/api/tools/{id}/ratings/me", s.protected(rh.DeleteRating)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerCommentRoutes(r *mux.Router) {
	ch := handlers.NewCommentHandler(s.commentService)

	r.HandleFunc("/api/tools/{id}/comments", ch.GetThreads).Methods("GET", "OPTIONS")
	r.Handle("/api/tools/{id}/comments", s.protected(ch.AddComment)).Methods("POST", "OPTIONS")
	r.Handle("/api/comments/{id}", s.protected(ch.UpdateComment)).Methods("PUT", "OPTIONS")
	r.Handle("/api/comments/{id}", s.protected(ch.DeleteComment)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerBookmarkRoutes(r *mux.Router) {
	bh := handlers.NewBookmarkHandler(s.bookmarkService)

	r.Handle("/api/bookmarks", s.protected(bh.GetBookmarks)).Methods("GET", "OPTIONS")
	r.Handle("/api/tools/{id}/bookmark", s.protected(bh.ToggleBookmark)).Methods("POST", "OPTIONS")
}

func (s *Server) registerCategoryRoutes(r *mux.Router) {
	ch := handlers.NewCategoryHandler(s.categoryService)

	r.HandleFunc("/api/categories", ch.GetCategories).Methods("GET", "OPTIONS")
	r.Handle("/api/categories", s.admin(ch.AddCategory)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/categories/{id}", ch.GetCategoryByID).Methods("GET", "OPTIONS")
	r.Handle("/api/categories/{id}", s.admin(ch.UpdateCategory)).Methods("PUT", "OPTIONS")
	r.Handle("/api/categories/{id}", s.admin(ch.DeleteCategory)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerAdminRoutes(r *mux.Router) {
	ah := handlers.NewAdminHandler(s.adminService, s.transferService, s.cfg.CookieSecure)

	r.HandleFunc("/api/admin/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/admin/logout", ah.Logout).Methods("POST", "OPTIONS")
	r.Handle("/api/admin/session", s.admin(ah.Session)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/tools/export", s.admin(ah.ExportTools)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/tools/import", s.admin(ah.ImportTools)).Methods("POST", "OPTIONS")
}
