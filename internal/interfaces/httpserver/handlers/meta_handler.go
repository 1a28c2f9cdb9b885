package handlers

import (
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/interfaces/httpserver/responses"
)

// MetaHandler serves the static language and level catalog.
type MetaHandler struct {
	meta responses.MetaResponse
}

func NewMetaHandler(cat *catalog.Catalog) *MetaHandler {
	return &MetaHandler{meta: responses.NewMetaResponse(cat)}
}

func (h *MetaHandler) GetMeta() responses.MetaResponse {
	return h.meta
}
