// api/router.go
package api

import (
	"database/sql"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/api/handlers"
	"github.com/Annany2002/nebula-studio/api/middleware"
	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/component"
	"github.com/Annany2002/nebula-studio/internal/fieldtype"
	"github.com/Annany2002/nebula-studio/internal/metrics"
	"github.com/Annany2002/nebula-studio/internal/records"
	"github.com/Annany2002/nebula-studio/internal/render"
	"github.com/Annany2002/nebula-studio/internal/schema"
)

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	c.MaxAge = 12 * time.Hour
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(db *sql.DB, cfg *config.Config, registry *component.Registry, m *metrics.Metrics) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	ratelimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	// Runs after Logger/Recovery but wraps every handler.
	router.Use(middleware.ErrorHandler())

	types := fieldtype.NewRegistry()
	schemaSvc := schema.NewService(db, types)
	store := records.NewStore(db, types, m)
	engine := render.NewEngine(registry, store, cfg.EnableDataBinding, m)

	componentHandler := handlers.NewComponentHandler(registry)
	collectionHandler := handlers.NewCollectionHandler(schemaSvc)
	recordHandler := handlers.NewRecordHandler(schemaSvc, store)
	widgetHandler := handlers.NewWidgetHandler(db, registry, engine, m)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// --- Protected Routes ---
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/components", componentHandler.ListComponents)
		apiRoutes.GET("/components/:type", componentHandler.GetComponent)

		collections := apiRoutes.Group("/projects/:project_id/collections")
		collections.POST("", collectionHandler.CreateCollection)
		collections.GET("", collectionHandler.ListCollections)
		collections.GET("/:collection_id", collectionHandler.GetCollection)
		collections.PUT("/:collection_id", collectionHandler.UpdateCollection)
		collections.DELETE("/:collection_id", collectionHandler.DeleteCollection)

		collections.GET("/:collection_id/fields", collectionHandler.ListFields)
		collections.POST("/:collection_id/fields", collectionHandler.AddField)
		collections.PUT("/:collection_id/fields/:field_id", collectionHandler.UpdateField)
		collections.DELETE("/:collection_id/fields/:field_id", collectionHandler.DeleteField)

		collections.POST("/:collection_id/records", recordHandler.CreateRecord)
		collections.GET("/:collection_id/records", recordHandler.ListRecords)
		collections.GET("/:collection_id/records/:record_id", recordHandler.GetRecord)
		collections.PUT("/:collection_id/records/:record_id", recordHandler.UpdateRecord)
		collections.DELETE("/:collection_id/records/:record_id", recordHandler.DeleteRecord)

		pages := apiRoutes.Group("/pages/:page_id")
		pages.POST("/widgets", widgetHandler.CreateWidget)
		pages.GET("/widgets", widgetHandler.ListWidgets)
		pages.PUT("/widgets/:widget_id", widgetHandler.UpdateWidget)
		pages.DELETE("/widgets/:widget_id", widgetHandler.DeleteWidget)
		pages.GET("/render", widgetHandler.RenderPage)

		apiRoutes.POST("/render", widgetHandler.RenderWidget)
	}

	return router
}
