package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// MaxJSONBodyBytes caps JSON request bodies
	MaxJSONBodyBytes = 10 * 1024 * 1024
	// multipartOverhead leaves room for boundaries and headers around the upload
	multipartOverhead = 1024 * 1024

	requestIDHeader = "X-Request-ID"
)

// NewRouter wires the book routes, CORS and request logging onto a gin engine
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.CustomRecovery(recoverJSON), cors.Default())

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	books := router.Group("/api/books")
	{
		books.GET("", h.ListBooks)
		books.POST("", limitBody(MaxJSONBodyBytes), h.AddBook)
		books.GET("/search", h.SearchBooks)
		books.DELETE("/:id", h.DeleteBook)
		books.POST("/process-image", limitBody(MaxImageBytes+multipartOverhead), h.ProcessImage)
	}

	return router
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		slog.Info("Request handled",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func recoverJSON(c *gin.Context, recovered any) {
	slog.Error("Panic while handling request", "panic", recovered, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
}
