package server

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	s.router.GET("/", s.index)
	if s.assets != nil {
		s.router.StaticFS("/assets", http.FS(s.assets))
	}

	api := s.router.Group("/api")
	{
		api.GET("/pdf-list", s.listPDFs)
		api.POST("/upload-pdf", s.uploadPDFs)
		api.POST("/initialize", s.initialize)
		api.POST("/ask", s.ask)
		api.GET("/status", s.status)
	}

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found: " + c.Request.Method + " " + c.Request.URL.Path})
	})
}

func (s *Server) index(c *gin.Context) {
	if s.assets == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client page not available"})
		return
	}
	page, err := fs.ReadFile(s.assets, "index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client page not available"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
