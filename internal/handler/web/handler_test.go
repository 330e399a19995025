package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestServeIndex(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/text-to-speech/")
	assert.Contains(t, rec.Body.String(), "/artifacts/")
}

func TestIndexDistinguishesFailureNotices(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	page := rec.Body.String()

	for _, notice := range []string{
		"Please enter text or upload a file.",
		"Could not reach the server",
		"The request timed out",
		"An unexpected error occurred",
		`"Error " + resp.status`,
	} {
		assert.Contains(t, page, notice)
	}
	assert.Contains(t, page, `text.trim() === ""`)
	assert.Contains(t, page, "err instanceof TypeError")
}
