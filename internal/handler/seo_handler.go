package handler

import (
	"encoding/xml"
	"fmt"
	"go-blog-app/internal/service"
	"net/http"
	"strings"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	articles service.ArticleServicer
	baseURL  string
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public origin of the site.
func NewSeoHandler(as service.ArticleServicer, baseURL string) *SeoHandler {
	return &SeoHandler{articles: as, baseURL: strings.TrimRight(baseURL, "/")}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /api/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

const sitemapDateFormat = "2006-01-02"

// articlePagePrefix is where the reader app serves a single article.
const articlePagePrefix = "/b/"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists every article a reader can see.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	sitemap := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for page := 1; ; page++ {
		res, err := h.articles.List(r.Context(), service.ListQuery{Page: page})
		if err != nil {
			http.Error(w, "Failed to retrieve articles for sitemap", http.StatusInternalServerError)
			return
		}
		for _, a := range res.Articles {
			u := sitemapURL{Loc: h.baseURL + articlePagePrefix + a.ID}
			if a.UpdatedAt != nil {
				u.LastMod = a.UpdatedAt.Format(sitemapDateFormat)
			}
			sitemap.URLs = append(sitemap.URLs, u)
		}
		if page >= res.TotalPages {
			break
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
