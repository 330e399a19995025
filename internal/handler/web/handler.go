package web

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/blogcaster/backend/pkg/utils"
)

//go:embed index.html
var embeddedFiles embed.FS

// RegisterRoutes 在 / 提供内嵌的前端页面
func RegisterRoutes(r chi.Router) {
	r.Get("/", serveIndex)
}

func serveIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := embeddedFiles.ReadFile("index.html")
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Failed to read index.html")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}
