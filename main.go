package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"briddhi-be/config"
	"briddhi-be/controllers"
	"briddhi-be/geocode"
	"briddhi-be/realtime"
	"briddhi-be/routes"
	"briddhi-be/storage"
	"briddhi-be/stores"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	config.ConnectRedis()

	issueCollection := config.GetCollection("issues")
	userCollection := config.GetCollection("users")

	if err := stores.EnsureIssueIndexes(issueCollection); err != nil {
		log.Fatalf("Failed to create issue indexes: %v", err)
	}
	if err := stores.EnsureUserIndexes(userCollection); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}

	uploader, err := storage.NewS3Uploader()
	if err != nil {
		log.Fatalf("Failed to configure S3 uploader: %v", err)
	}

	issueStore := stores.NewMongoIssueStore(issueCollection)
	userStore := stores.NewMongoUserStore(userCollection)
	hub := realtime.NewHub()

	citizenController := &controllers.CitizenController{
		Users:    userStore,
		Issues:   issueStore,
		Hub:      hub,
		Geocoder: geocode.NewNominatim(),
		Uploader: uploader,
	}
	adminController := &controllers.AdminController{
		Users:  userStore,
		Issues: issueStore,
		Hub:    hub,
	}

	r := gin.Default()
	r.Use(cors.Default())

	routes.CitizenRoutes(r, citizenController, config.RedisClient)
	routes.AdminRoutes(r, adminController)
	routes.RealtimeRoutes(r, hub)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
