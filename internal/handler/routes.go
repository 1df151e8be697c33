package handler

import (
	"go-blog-app/internal/session"
	"net/http"

	appmw "go-blog-app/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router.
func NewRouter(
	articleHandler *ArticleHandler,
	fileHandler *FileHandler,
	authHandler *AuthHandler,
	seoHandler *SeoHandler,
	authzMiddleware func(http.Handler) http.Handler,
	errorMiddleware func(appmw.AppHandler) http.Handler,
	rateLimiter func(http.Handler) http.Handler,
	sessionManager session.Manager,
	maxBodyBytes int64,
) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rateLimiter)

	r.Get("/robots.txt", seoHandler.robotsHandler)
	r.Get("/sitemap.xml", seoHandler.sitemapHandler)

	r.Group(func(r chi.Router) {
		if maxBodyBytes > 0 {
			r.Use(middleware.RequestSize(maxBodyBytes))
		}
		r.Use(sessionManager.LoadAndSave)
		r.Use(authzMiddleware)

		r.Method(http.MethodPost, "/api/login", errorMiddleware(authHandler.loginHandler))
		r.Method(http.MethodPost, "/api/logout", errorMiddleware(authHandler.logoutHandler))

		r.Route("/api/articles", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(articleHandler.listHandler))
			r.Method(http.MethodPost, "/", errorMiddleware(articleHandler.createHandler))

			r.Route("/{id}", func(r chi.Router) {
				r.Method(http.MethodGet, "/", errorMiddleware(articleHandler.getHandler))
				r.Method(http.MethodPut, "/", errorMiddleware(articleHandler.saveHandler))
				r.Method(http.MethodDelete, "/", errorMiddleware(articleHandler.deleteHandler))
				r.Method(http.MethodPatch, "/status", errorMiddleware(articleHandler.statusHandler))
				r.Method(http.MethodPut, "/metadata", errorMiddleware(articleHandler.renameHandler))

				r.Method(http.MethodGet, "/files", errorMiddleware(fileHandler.listHandler))
				r.Method(http.MethodPost, "/files", errorMiddleware(fileHandler.uploadHandler))
				r.Method(http.MethodDelete, "/files/{filename}", errorMiddleware(fileHandler.deleteHandler))
				r.Method(http.MethodGet, "/files/{filename}/url", errorMiddleware(fileHandler.signedURLHandler))
			})
		})

		r.Method(http.MethodGet, "/files/{id}/{filename}", errorMiddleware(fileHandler.serveHandler))
	})

	return r
}
