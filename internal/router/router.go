// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/config"
	"github.com/javajoker/digital-storefront/internal/handlers"
	"github.com/javajoker/digital-storefront/internal/middleware"
	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

// Dependencies are the outside systems the router's services talk to.
type Dependencies struct {
	Carts   cache.CartStore
	Gateway services.CheckoutGateway
	Assets  services.AssetStore
}

func Initialize(cfg *config.Config, db *gorm.DB, deps Dependencies) *gin.Engine {
	// Initialize services
	catalogService := services.NewCatalogService(db)
	authService := services.NewAuthService(db, cfg)
	cartService := services.NewCartService(deps.Carts, catalogService)
	checkoutService := services.NewCheckoutService(db, cfg, deps.Gateway, catalogService)
	orderService := services.NewOrderService(db, deps.Assets)
	noteService := services.NewNoteService(db)
	reviewService := services.NewReviewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Server.SecureCookie)
	catalogHandler := handlers.NewCatalogHandler(catalogService, reviewService)
	cartHandler := handlers.NewCartHandler(cartService, cfg.Frontend.CartURL)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cartService, cfg.Frontend.CartURL)
	orderHandler := handlers.NewOrderHandler(orderService)
	noteHandler := handlers.NewNoteHandler(noteService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.SiteBaseURL))
	r.Use(middleware.I18nMiddleware())
	if cfg.Server.RateLimit {
		r.Use(middleware.GeneralRateLimit())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	loginRequired := middleware.LoginRequired(cfg.Frontend.LoginURL)
	cartSession := middleware.CartSession(time.Duration(cfg.Redis.CartTTL)*time.Hour, cfg.Server.SecureCookie)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		if cfg.Server.RateLimit {
			auth.Use(middleware.AuthRateLimit())
		}
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/login", authHandler.LoginPrompt)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Catalog routes (public)
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", catalogHandler.ListProducts)
			catalog.GET("/health", catalogHandler.Health)
			catalog.GET("/:slug", middleware.OptionalAuth(), catalogHandler.GetProduct)
			catalog.POST("/:slug/reviews", middleware.AuthRequired(), catalogHandler.SubmitReview)
		}

		// Cart routes, keyed by the session cookie
		cart := v1.Group("/cart")
		cart.Use(cartSession)
		{
			cart.GET("", cartHandler.View)
			cart.GET("/add/:product_id", cartHandler.Add)
			cart.POST("/add/:product_id", cartHandler.Add)
			cart.POST("/update", cartHandler.Update)
			cart.POST("/remove", cartHandler.Remove)
			cart.POST("/remove/:product_id", cartHandler.Remove)
			cart.POST("/clear", cartHandler.Clear)
		}

		// Checkout routes
		checkout := v1.Group("/checkout")
		{
			checkout.GET("", cartSession, loginRequired, checkoutHandler.Start)
			checkout.POST("", cartSession, loginRequired, checkoutHandler.Start)
			checkout.GET("/success", checkoutHandler.Success)
			checkout.GET("/cancel", checkoutHandler.Cancel)
			checkout.POST("/webhook", checkoutHandler.Webhook)
		}

		// Order routes
		orders := v1.Group("/orders")
		{
			orders.GET("/download/:id", loginRequired, orderHandler.Download)

			protected := orders.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("", orderHandler.GetOrderHistory)
				protected.GET("/downloads", orderHandler.GetPurchases)
				protected.GET("/:id", orderHandler.GetOrder)
			}
		}

		// Note routes
		notes := v1.Group("/notes")
		notes.Use(middleware.AuthRequired())
		{
			notes.GET("", noteHandler.ListNotes)
			notes.POST("/product/:product_id", noteHandler.CreateNote)
			notes.PUT("/:id", noteHandler.UpdateNote)
			notes.DELETE("/:id", noteHandler.DeleteNote)
		}
	}

	return r
}
