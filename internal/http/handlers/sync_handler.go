package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/services"
	"paysync-server/internal/utils"
)

const dateLayout = "2006-01-02"

type SyncRunner interface {
	Run(ctx context.Context, req services.SyncRequest) (*services.SyncResult, error)
}

type SyncHandler struct {
	sync SyncRunner
}

type SyncResponse struct {
	WindowStart time.Time              `json:"window_start"`
	WindowEnd   time.Time              `json:"window_end"`
	Fetched     int                    `json:"fetched"`
	Inserted    int                    `json:"inserted"`
	Skipped     int                    `json:"skipped"`
	Data        []NotificationResponse `json:"data"`
}

func NewSyncHandler(sync SyncRunner) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Run accepts start_date and end_date as query parameters, each a date or
// an RFC3339 timestamp.
func (h *SyncHandler) Run(c *gin.Context) {
	result, err := h.sync.Run(c.Request.Context(), services.SyncRequest{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		WindowStart: result.WindowStart,
		WindowEnd:   result.WindowEnd,
		Fetched:     result.Fetched,
		Inserted:    result.Inserted,
		Skipped:     result.Skipped,
		Data:        notificationsToResponse(result.Notifications),
	})
}
