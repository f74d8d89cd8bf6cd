package transport

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/anime-shed/image-discovery-go/internal/config"
	"github.com/anime-shed/image-discovery-go/internal/service"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

const version = "1.0.0"

// Services are the collaborators behind the routes. Images, Posts, Search
// and Discovery are nil when no database is configured; their routes then
// answer 503.
type Services struct {
	Analysis  service.ImageAnalysisService
	Discovery service.DiscoveryService
	Images    service.ImageService
	Posts     service.PostService
	Search    service.SearchService
}

func NewHandler(svcs Services, cfg *config.Config, gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		gzip.Gzip(gzip.DefaultCompression),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	limiter := newClientRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, defaultLimiterClients)
	h := &handlers{svcs: svcs, cfg: cfg}

	r.GET("/health", healthCheck)
	// The gzip middleware already compresses responses; promhttp must not do it twice.
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{DisableCompression: true})))
	r.POST("/v1/analyze", limiter.middleware(), h.analyzeImage)

	api := r.Group("/api")
	api.POST("/image_analyze", limiter.middleware(), requireService(svcs.Discovery != nil), h.imageAnalyze)

	images := api.Group("/images", requireService(svcs.Images != nil))
	images.POST("", h.createImage)
	images.GET("/:img_id", h.getImage)
	images.DELETE("/:img_id", h.deleteImage)

	posts := api.Group("/posts", requireService(svcs.Posts != nil))
	posts.POST("", h.createPost)
	posts.GET("", h.listPosts)
	posts.GET("/recent", h.recentPosts)
	posts.GET("/:post_id", h.getPost)
	posts.DELETE("/:post_id", h.deletePost)
	posts.GET("/:post_id/related", requireService(svcs.Search != nil), h.relatedPosts)

	api.GET("/search", requireService(svcs.Search != nil), h.search)

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:         600,
	}).Handler(r)
}

type handlers struct {
	svcs Services
	cfg  *config.Config
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}
