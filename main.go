package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"govconnect-be/classifier"
	"govconnect-be/config"
	"govconnect-be/controllers"
	"govconnect-be/models"
	"govconnect-be/repositories"
	"govconnect-be/routes"
	"govconnect-be/services"
	"govconnect-be/storage"
)

const uploadsBasePath = "/api/uploads"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedis()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	blobs, err := buildBlobStore(uploadsDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		logger.Warn("GEMINI_API_KEY not set; every issue will get priority medium")
	}
	remote := classifier.NewGemini(
		os.Getenv("GEMINI_BASE_URL"),
		os.Getenv("GEMINI_API_KEY"),
		os.Getenv("GEMINI_MODEL"),
	)
	cls := classifier.WithFallback(remote, classifier.NewStatic(models.PriorityMedium), logger)

	repo := repositories.NewMongoIssueRepository(db)
	svc := services.NewTriageService(repo, blobs, cls, logger)
	ic := controllers.NewIssueController(svc)

	r := gin.Default()

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Static(uploadsBasePath, uploadsDir)

	routes.AuthRoutes(r)
	routes.IssueRoutes(r, ic, dailyIssueLimit())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildBlobStore selects MinIO when configured, local disk otherwise.
func buildBlobStore(uploadsDir string) (storage.BlobStore, error) {
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		return storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			Bucket:    os.Getenv("MINIO_BUCKET"),
		})
	}
	return storage.NewDiskStore(uploadsDir, uploadsBasePath)
}

func dailyIssueLimit() int {
	if raw := os.Getenv("ISSUE_RATE_LIMIT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 10
}
