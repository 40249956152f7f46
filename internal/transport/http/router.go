package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mirari/uploader/internal/handler"
	"github.com/mirari/uploader/internal/httputil"
	authmw "github.com/mirari/uploader/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	PostHandler    *handler.PostHandler
	MediaHandler   *handler.MediaHandler
	ProfileHandler *handler.ProfileHandler
	VoteHandler    *handler.VoteHandler
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Every operation acts on the caller's own posts, so everything under
	// /v1 requires authentication.
	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/create_post", cfg.PostHandler.Create)
		r.Post("/upload_image", cfg.MediaHandler.UploadImage)
		r.Post("/update_post", cfg.PostHandler.Update)
		r.Post("/update_privacy", cfg.PostHandler.UpdatePrivacy)
		r.Post("/vote", cfg.VoteHandler.Vote)
		r.Post("/set_icon", cfg.ProfileHandler.SetIcon)
		r.Post("/set_banner", cfg.ProfileHandler.SetBanner)
	})

	return r
}
