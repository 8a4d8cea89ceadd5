package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"vwv/backend/internal/config"
	"vwv/backend/internal/database"
	"vwv/backend/internal/handlers"
	"vwv/backend/internal/middleware"
	"vwv/backend/internal/sales"
	"vwv/backend/internal/store/mongostore"
)

func main() {
	config.Load()

	if config.AppEnv.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureSaleIndexes(db); err != nil {
		log.Printf("sale index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}

	engine := sales.NewEngine(mongostore.New(db), config.AppEnv.BranchName)

	r := gin.Default()

	apiLimiter := middleware.NewRateLimiter(300, time.Minute, 10000)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute, 10000)
	r.Use(apiLimiter.Middleware())

	secret := config.AppEnv.JWTSecret
	branch := config.AppEnv.BranchName

	r.POST("/auth/login", loginLimiter.Middleware(), handlers.Login(db, secret, config.AppEnv.AccessTokenTTL))

	r.GET("/categories", handlers.GetCategories())

	api := r.Group("/api")
	{
		api.GET("/products", middleware.StaffAuth(secret), handlers.GetProducts(db))
		api.GET("/products/:id", middleware.StaffAuth(secret), handlers.GetProduct(db))

		api.POST("/sales", middleware.StaffAuth(secret), handlers.CreateSale(db, engine))
		api.GET("/sales", middleware.StaffAuth(secret), handlers.GetSales(db, engine))
		api.PUT("/sales", middleware.AdminAuth(secret), handlers.UpdateSaleStatus(db, engine))
		api.DELETE("/sales", middleware.AdminAuth(secret), handlers.DeleteSale(db, engine))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.POST("/products", handlers.CreateProduct(db, branch))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/users", handlers.GetUsers(db))
		admin.POST("/users", handlers.CreateUser(db, branch))
		admin.PUT("/users/:id", handlers.UpdateUser(db))
	}

	r.Run(":" + config.AppEnv.Port)
}
