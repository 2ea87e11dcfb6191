package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/repository"
	"storefront/internal/retry"
	"storefront/internal/session"
)

type orderRepository interface {
	checkout.OrderStore
	handlers.OrderReader
}

type catalogRepository interface {
	checkout.ProductLookup
	handlers.ProductLister
}

func main() {
	cfg := config.Load()

	var (
		orders  orderRepository
		catalog catalogRepository
		ping    = func(context.Context) error { return nil }
	)

	if cfg.MongoURI != "" {
		client, err := database.Connect(cfg.MongoURI)
		if err != nil {
			log.Fatal(err)
		}
		db := client.Database(cfg.DBName)
		log.Println("MongoDB connected to:", db.Name())

		if err := database.EnsureProductIndexes(db); err != nil {
			log.Printf("product index warning: %v", err)
		}
		if err := database.EnsureOrderIndexes(db); err != nil {
			log.Printf("order index warning: %v", err)
		}

		orders = repository.NewMongoOrders(db)
		catalog = repository.NewMongoCatalog(db)
		ping = database.Pinger(client)
	} else {
		log.Println("[STARTUP] [WARN] MONGO_URI not set, orders are kept in memory")
		orders = repository.NewMemoryOrders()
		memCatalog := repository.NewMemoryCatalog()
		if cfg.CatalogFile != "" {
			loaded, err := repository.LoadMemoryCatalog(cfg.CatalogFile)
			if err != nil {
				log.Fatal(err)
			}
			memCatalog = loaded
		}
		catalog = memCatalog
	}

	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		log.Println("[STARTUP] [WARN] Stripe keys are not fully configured")
	}
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey)
	sessions := session.NewStore(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies)

	pricer := checkout.NewPricer(catalog, cfg.Delivery)
	materializer := checkout.NewMaterializer(orders, catalog)
	reconciler := checkout.NewReconciler(orders, materializer, gateway, retry.Policy{
		Attempts: cfg.WebhookAttempts,
		Delay:    cfg.WebhookDelay,
		Sleep:    retry.Sleep,
	})

	deps := handlers.CheckoutDeps{
		Sessions:        sessions,
		Pricer:          pricer,
		Initiator:       checkout.NewInitiator(gateway),
		Materializer:    materializer,
		Orders:          orders,
		StripePublicKey: cfg.Stripe.PublicKey,
		Currency:        cfg.Stripe.Currency,
	}

	r := gin.Default()
	r.Use(middleware.OptionalUser(cfg.JWTSecret))

	r.GET("/healthz", handlers.Health(ping))
	r.GET("/products", handlers.GetProducts(catalog, sessions))
	r.GET("/bag", handlers.GetBag(sessions, pricer))
	r.PUT("/bag", handlers.PutBag(sessions, pricer))

	r.GET("/checkout", handlers.ShowCheckout(deps))
	r.POST("/checkout", handlers.SubmitCheckout(deps))
	r.POST("/checkout/cache_checkout_data", handlers.CacheCheckoutData(deps))
	r.GET("/checkout/success/:orderNumber", handlers.CheckoutSuccess(deps))
	r.POST("/checkout/wh", handlers.StripeWebhook(payments.NewStripeEventParser(cfg.Stripe.WebhookSecret), reconciler))

	r.GET("/orders/:orderNumber", handlers.GetOrderHistory(orders))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})
		admin.GET("/orders", handlers.GetOrders(orders))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
