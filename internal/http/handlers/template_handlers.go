package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/meta-shift/internal/models"
)

func (h *ShiftHandler) ListTemplates(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: h.templates.ListAll()})
		return
	}

	cat := models.Category(category)
	if !cat.Valid() {
		h.respondError(c, http.StatusBadRequest, "Unknown category: "+category)
		return
	}
	list := h.templates.ByCategory(cat)
	if list == nil {
		list = []models.MetadataTemplate{}
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: list})
}

func (h *ShiftHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.templates.ByID(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		h.respondError(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: tmpl})
}
