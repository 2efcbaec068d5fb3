// Package router builds the gin engine and its routes.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	symbollisthandler "stock_trend/internal/feature/symbollist/transport/handler"
	trendhandler "stock_trend/internal/feature/trend/transport/handler"
	"stock_trend/internal/platform/http/handler"
	"stock_trend/internal/platform/http/middleware"
	jwtmw "stock_trend/internal/platform/jwt"
)

// Options configures the cross-cutting parts of the router.
type Options struct {
	CORSOrigins  []string
	JWTSecret    string
	HealthChecks map[string]handler.Check
}

// NewRouter wires every HTTP endpoint of the service.
func NewRouter(trend *trendhandler.TrendHandler, symbol *symbollisthandler.SymbolHandler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog("/healthz"))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	// 認証不要
	// 導通確認用
	health := handler.Health(opts.HealthChecks)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.GET("/trends/:symbol", trend.GetTrend)
	r.GET("/symbols", symbol.List)

	// 認証必須のルート
	// 一括取り込みは外部APIの呼び出し回数を消費するため JWT を要求する
	admin := r.Group("/")
	admin.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		admin.POST("/preload", trend.Preload)
	}

	return r
}
