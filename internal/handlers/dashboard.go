package handlers

import (
	"net/http"

	"github.com/maynagashev/autojob/internal/middleware"
	"github.com/maynagashev/autojob/internal/services"
)

// DashboardHandler отдает данные главной страницы.
type DashboardHandler struct {
	service services.DashboardService
	funnel  *Funnel
}

// NewDashboardHandler создает новый экземпляр DashboardHandler.
func NewDashboardHandler(s services.DashboardService, funnel *Funnel) *DashboardHandler {
	return &DashboardHandler{service: s, funnel: funnel}
}

// Get возвращает текущее резюме и последние отклики.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.funnel.Error(w, r, errNoUserInContext)
		return
	}

	dashboard, err := h.service.Load(r.Context(), userID)
	if err != nil {
		h.funnel.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
