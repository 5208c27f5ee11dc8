package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// pageParams reads ?page and ?limit. Invalid values fall back to the defaults.
func pageParams(c *gin.Context, defaultLimit int) service.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.Pagination{Page: page, Limit: limit}.Normalize(defaultLimit)
}

// respondPage writes the {count,next,previous,results} envelope. Asking for a page
// past the end is a 404.
func respondPage[T any](c *gin.Context, p service.Pagination, results []T, count int64) {
	if len(results) == 0 && p.Page > 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid page"})
		return
	}
	if results == nil {
		results = []T{}
	}
	out := types.Page[T]{Count: count, Results: results}
	if int64(p.Page*p.Limit) < count {
		out.Next = pageURL(c, p.Page+1)
	}
	if p.Page > 1 {
		out.Previous = pageURL(c, p.Page-1)
	}
	c.JSON(http.StatusOK, out)
}

// pageURL rebuilds the absolute request URL pointing at another page. The first page
// drops the parameter entirely.
func pageURL(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}
