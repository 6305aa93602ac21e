package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	app "memocal/src/app"
	auth "memocal/src/auth"
	cfg "memocal/src/configuration"
	db "memocal/src/repository"
)

func RunServer(config *cfg.Properties) {
	// Create Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Server.Origin},
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", config.Auth.AdminPinHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	pprof.Register(router)

	clientS3, err := app.NewMinioS3Client(
		config.S3.Host,
		config.S3.AccessKey,
		config.S3.SecretKey,
		config.S3.Bucket,
		config.S3.UseSSL)
	if err != nil {
		log.Fatalf("could not connect to minio: %v", err)
	}

	dataStore, err := db.NewEntryDataBase(config)
	if err != nil {
		log.Fatalf("entry store not available: %v", err)
	}
	if !dataStore.Connect() {
		log.Fatalf("can not connect to entry store at %s", config.Store.Path)
	}

	codec := auth.NewTokenCodec(config.Auth.Secret)
	resolver := auth.NewSessionResolver(codec, config.Auth.ViewerCookieName, config.Auth.AdminCookieName)
	guard := auth.NewGuard(resolver, config.Auth.AdminPin, config.Auth.AdminPinHeader)

	extractor := app.NewDateExtractor(clientS3, config.Probe.FFprobe, app.NewDateCache())
	indexer := app.NewDateIndexer(clientS3, extractor, config.S3.ProcessedPrefix, config.S3.PublicBaseURL)

	authHandler := NewAuthHandler(config, codec, resolver)
	entriesHandler := NewEntriesHandler(config, dataStore)
	mediaHandler := NewMediaHandler(config, clientS3, indexer)

	// Register Routes
	router.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "success"}) })

	router.POST("/login", authHandler.PostLogin)
	router.POST("/admin/login", authHandler.PostAdminLogin)
	router.POST("/logout", authHandler.Logout)
	router.GET("/session", authHandler.Session)

	router.GET("/entries", guard.RequireViewer(), entriesHandler.GetEntries)
	router.PUT("/entries", guard.RequireAdmin(), entriesHandler.PutEntry)
	router.DELETE("/entries", guard.RequireAdmin(), entriesHandler.DeleteEntry)

	router.GET("/media/by-date", guard.RequireViewer(), mediaHandler.GetMediaByDate)

	admin := router.Group("/admin", guard.RequireAdmin())
	admin.GET("/photos", mediaHandler.GetPhotos)
	admin.POST("/objects/delete", mediaHandler.DeleteObjects)
	admin.POST("/index/build", mediaHandler.BuildIndex)
	admin.POST("/index/prune", mediaHandler.PruneIndex)

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(ctx *gin.Context) { ctx.JSON(http.StatusMethodNotAllowed, gin.H{}) })
	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{}) })
	// Start the server
	router.Run(fmt.Sprintf(":%s", config.Server.Port))
}
