package handler

import (
	"log"
	"net/http"
	"sync"

	config "relief-dashboard-api/configs"
	"relief-dashboard-api/pkg/server"

	"github.com/gin-gonic/gin"
)

var (
	app  *gin.Engine
	once sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() *gin.Engine {
	once.Do(func() {
		// .envファイルはVercelの環境変数設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		gin.SetMode(gin.ReleaseMode)
		app = server.NewRouter(cfg)
		log.Printf("[setupApp] Gin application initialized (environment=%s)", cfg.Environment)
	})
	return app
}

// Handler はVercelのエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	setupApp().ServeHTTP(w, r)
}
