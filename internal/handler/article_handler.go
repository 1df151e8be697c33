package handler

import (
	"errors"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ArticleHandler holds the dependencies for the article handlers.
type ArticleHandler struct {
	articles service.ArticleServicer
	log      logger.Logger
}

// NewArticleHandler creates a new ArticleHandler with the given dependencies.
func NewArticleHandler(as service.ArticleServicer, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{articles: as, log: log}
}

// listHandler serves one page of the listing. view=admin needs the admin credential.
func (h *ArticleHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	userInfo := middleware.GetUserInfo(r.Context())

	admin := q.Get("view") == "admin"
	if admin && !userInfo.IsAdmin {
		return &middleware.AppError{Error: errors.New("admin view without credential"), Message: "Unauthorized", Code: http.StatusForbidden}
	}
	page, _ := strconv.Atoi(q.Get("page"))

	res, err := h.articles.List(r.Context(), service.ListQuery{
		Admin:     admin,
		All:       q.Get("range") == "all",
		Query:     q.Get("q"),
		Page:      page,
		SortKey:   q.Get("sortKey"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, res)
	return nil
}

func (h *ArticleHandler) getHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"), userInfo.IsAdmin)
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, article)
	return nil
}

type createRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *ArticleHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req createRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	article, err := h.articles.Create(r.Context(), req.ID, req.Title)
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusCreated, article)
	return nil
}

type saveRequest struct {
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *ArticleHandler) saveHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req saveRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	article, err := h.articles.Save(r.Context(), chi.URLParam(r, "id"), service.SaveInput{Content: req.Content, Tags: req.Tags})
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, article)
	return nil
}

func (h *ArticleHandler) statusHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req service.StatusInput
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	article, err := h.articles.SetStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, article)
	return nil
}

type renameRequest struct {
	NewID    string `json:"newId"`
	NewTitle string `json:"newTitle"`
	Title    string `json:"title"`
}

type renameResponse struct {
	NewID string `json:"newId"`
	service.ArticleSummary
}

// renameHandler changes an article's id and title. The editor sends
// newTitle; title is accepted as well.
func (h *ArticleHandler) renameHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req renameRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	oldID := chi.URLParam(r, "id")
	if req.NewID == "" {
		req.NewID = oldID
	}
	title := req.NewTitle
	if title == "" {
		title = req.Title
	}
	article, err := h.articles.Rename(r.Context(), oldID, req.NewID, title)
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, renameResponse{NewID: article.ID, ArticleSummary: *article})
	return nil
}

func (h *ArticleHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.articles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, successBody{Success: true})
	return nil
}
