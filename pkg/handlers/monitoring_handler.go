package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"relief-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// 集計期間の上限（30日）
const maxMonitoringHours = 24 * 30

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs は集計されたリクエストログと描画ログを返します。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := parsePeriodHours(c.DefaultQuery("period", "24h"))
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}

// parsePeriodHours は "6h" や "7d" を時間数に変換します。解釈できない場合は24時間です。
func parsePeriodHours(period string) int {
	period = strings.TrimSpace(period)
	if len(period) < 2 {
		return 24
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return 24
	}
	hours := 0
	switch period[len(period)-1] {
	case 'h':
		hours = n
	case 'd':
		hours = n * 24
	default:
		return 24
	}
	if hours > maxMonitoringHours {
		return maxMonitoringHours
	}
	return hours
}
