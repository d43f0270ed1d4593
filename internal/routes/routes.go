package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sneaker_store/internal/database"
	"sneaker_store/internal/handlers"
	"sneaker_store/internal/middleware"
	"sneaker_store/internal/utils"
)

// RegisterRoutes reproduit les routes json-server utilisées par l'app
func RegisterRoutes(r *gin.Engine, store database.Store) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))
	r.Use(middleware.Metrics())

	products := handlers.NewProductsResource(store)
	r.GET("/products", products.List)
	r.GET("/products/:id", products.Get)
	r.POST("/products", middleware.AuditCriticalActions(utils.ACTION_PRODUCT_CREATE, utils.RESOURCE_PRODUCT), products.Create)
	r.PUT("/products/:id",
		middleware.AuditPriceChanges(store),
		middleware.AuditCriticalActions(utils.ACTION_PRODUCT_UPDATE, utils.RESOURCE_PRODUCT),
		products.Update)
	r.DELETE("/products/:id", middleware.AuditCriticalActions(utils.ACTION_PRODUCT_DELETE, utils.RESOURCE_PRODUCT), products.Delete)

	cart := handlers.NewCartResource(store)
	r.GET("/cart", cart.List)
	r.GET("/cart/:id", cart.Get)
	r.POST("/cart", middleware.AuditCriticalActions(utils.ACTION_CART_ADD, utils.RESOURCE_CART), cart.Create)
	r.PUT("/cart/:id", middleware.AuditCriticalActions(utils.ACTION_CART_UPDATE, utils.RESOURCE_CART), cart.Update)
	r.DELETE("/cart/:id", middleware.AuditCriticalActions(utils.ACTION_CART_REMOVE, utils.RESOURCE_CART), cart.Delete)

	users := handlers.Users{Store: store}
	r.GET("/users", users.List)
	r.GET("/users/:id", users.Get)
	r.POST("/users", middleware.AuditCriticalActions(utils.ACTION_USER_CREATE, utils.RESOURCE_USER), users.Create)

	r.GET("/ws/catalog", handlers.CatalogWebSocket(store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
