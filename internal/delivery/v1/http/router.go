package http

import (
	"github.com/met-galaxy/field-engine/internal/usecase"
	"github.com/met-galaxy/field-engine/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Router struct {
	router    *chi.Mux
	logger    logger.Logger
	minCount  int
	maxCount  int
	maxChunks int
}

func NewRouter(router *chi.Mux, logger logger.Logger, minCount, maxCount, maxChunks int) *Router {
	return &Router{router: router, logger: logger, minCount: minCount, maxCount: maxCount, maxChunks: maxChunks}
}

func (r *Router) Init(fieldUC usecase.FieldUC) {
	r.router.Route("/api", func(api chi.Router) {
		fieldHandler := NewFieldHandler(fieldUC, r.logger, r.minCount, r.maxCount, r.maxChunks)
		registerFieldRoutes(api, fieldHandler)
	})
}

func registerFieldRoutes(router chi.Router, fieldHandler *FieldHandler) {
	router.Route("/artworks", func(art chi.Router) {
		art.Get("/field-chunk", fieldHandler.getFieldChunk)
		art.Post("/field-chunks", fieldHandler.postFieldChunks)
	})
}
