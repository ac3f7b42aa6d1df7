package server

import (
	"net/http"

	config "relief-dashboard-api/configs"
	"relief-dashboard-api/pkg/chart"
	"relief-dashboard-api/pkg/handlers"
	"relief-dashboard-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ChartDefaults は設定からグラフのフォント既定値を作ります。
func ChartDefaults(cfg *config.Config) chart.Defaults {
	return chart.Defaults{
		FontFamily: cfg.ChartFontFamily,
		FontSize:   cfg.ChartFontSize,
		FontColor:  cfg.ChartFontColor,
	}
}

// ChartLayout は設定から描画面のサイズを作ります。
func ChartLayout(cfg *config.Config) services.ChartLayout {
	return services.ChartLayout{
		DemandWidth:  cfg.DemandChartWidth,
		DemandHeight: cfg.DemandChartHeight,
		GaugeSize:    cfg.RiskGaugeSize,
	}
}

// authMiddleware はAPIキーが設定されている場合だけ X-API-KEY ヘッダーを検証します。
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// NewRouter はサービスとハンドラーを組み立ててGinルーターを返します。
func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	defaults := ChartDefaults(cfg)
	chartService := services.NewPredictionChartService(defaults, ChartLayout(cfg), monitoringService)

	// ハンドラーの初期化
	chartHandler := handlers.NewPredictionChartHandler(chartService, defaults)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)
	adminHandler := handlers.NewAdminHandler(cfg)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowHeaders("X-API-KEY")
	r.Use(cors.New(corsConfig))

	// ヘルスチェックエンドポイント
	r.GET("/health", adminHandler.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		// 予測グラフAPI
		predict := v1.Group("/predict")
		predict.Use(adminHandler.MaintenanceGate())
		{
			predict.POST("/charts", chartHandler.RenderCharts)
			predict.POST("/charts/:surface", chartHandler.RenderSurface)
			predict.POST("/page", chartHandler.RenderPage)
			predict.POST("/export", chartHandler.ExportWorkbook)
		}

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}
