package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/NewsQuant/internal/feed"
	"github.com/LJTian/NewsQuant/internal/pipeline"
	"github.com/LJTian/NewsQuant/internal/storage"
)

// Server 薄 HTTP 层：信息流读取、新闻查询与手动触发采集
type Server struct {
	store    *storage.Store
	feed     *feed.Service
	pipeline *pipeline.Pipeline
}

func NewServer(store *storage.Store, feedSvc *feed.Service, p *pipeline.Pipeline) *Server {
	return &Server{store: store, feed: feedSvc, pipeline: p}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/feed", s.listFeed)
		v1.GET("/news", s.listNews)
		v1.GET("/sources", s.listSources)
		v1.POST("/crawl", s.crawlAll)
		v1.POST("/crawl/:name", s.crawlOne)
		v1.POST("/news/:id/reanalyze", s.reanalyze)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listFeed(c *gin.Context) {
	mode := c.DefaultQuery("mode", feed.ModeAll)
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	items, err := s.feed.List(mode, storage.DefaultUserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listNews(c *gin.Context) {
	filter := storage.NewsFilter{
		Source:   c.Query("source"),
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
		Bias:     c.Query("bias"),
		Limit:    intQuery(c, "limit", 20),
		Offset:   intQuery(c, "offset", 0),
	}

	if v := c.Query("min_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinScore = &f
		}
	}
	if v := c.Query("max_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxScore = &f
		}
	}
	if v := c.Query("pushed"); v != "" {
		pushed := v == "true" || v == "1"
		filter.Pushed = &pushed
	}

	items, err := s.store.QueryNews(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listSources(c *gin.Context) {
	sources, err := s.store.ListSources(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    sources,
	})
}

func (s *Server) crawlAll(c *gin.Context) {
	summary := s.pipeline.RunAllSources(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    summary,
	})
}

func (s *Server) crawlOne(c *gin.Context) {
	summary := s.pipeline.RunSource(c.Request.Context(), c.Param("name"))
	status := http.StatusOK
	if summary.Status == "error" {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"code":    summary.Status,
		"data":    summary,
	})
}

func (s *Server) reanalyze(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid news id"})
		return
	}
	if err := s.pipeline.Reanalyze(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
