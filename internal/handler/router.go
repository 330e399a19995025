package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/blogcaster/backend/internal/handler/artifact"
	"github.com/zhouzirui/blogcaster/backend/internal/handler/tts"
	"github.com/zhouzirui/blogcaster/backend/internal/handler/web"
	middlewarePkg "github.com/zhouzirui/blogcaster/backend/internal/middleware"
	"github.com/zhouzirui/blogcaster/backend/internal/service/conversion"
	"github.com/zhouzirui/blogcaster/backend/internal/storage"
	"github.com/zhouzirui/blogcaster/backend/pkg/utils"
)

// Dependencies 路由所需的服务，Catalog 可为 nil
type Dependencies struct {
	Conversion *conversion.Service
	Store      *storage.Store
	Catalog    *storage.Catalog
	Logger     *zap.Logger
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Ready   bool   `json:"ready"`
	Detail  string `json:"detail,omitempty"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS())

	var catalog artifact.Catalog
	if deps.Catalog != nil {
		catalog = deps.Catalog
	}

	tts.New(deps.Conversion, logger).RegisterRoutes(r)
	artifact.New(deps.Store, catalog, logger).RegisterRoutes(r)
	web.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok", Backend: deps.Conversion.Backend(), Ready: true}
		if err := deps.Conversion.Ready(); err != nil {
			resp.Ready = false
			resp.Detail = err.Error()
		}
		utils.RespondJSON(w, http.StatusOK, resp)
	})

	return r
}
