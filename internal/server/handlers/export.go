package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/service/export"
)

// ExportSheets mirrors the feeding ledger into the configured spreadsheet.
func (h *Handler) ExportSheets(c *gin.Context) {
	if !h.export.Enabled() {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, export.ErrDisabled.Error())
		return
	}
	handle, ok := h.open(c)
	if !ok {
		return
	}
	res, err := h.export.ExportFeeding(c.Request.Context(), handle)
	if err != nil {
		if errors.Is(err, export.ErrDisabled) {
			response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, err.Error())
			return
		}
		h.logger.Error("sheets export failed", zap.String("owner", handle.Owner()), zap.Error(err))
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, "Spreadsheet export failed")
		return
	}
	h.ok(c, res)
}
