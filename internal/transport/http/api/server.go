package apihttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"bodycomp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultAddr      = ":9991"
	shutdownTimeout  = 5 * time.Second
	headerRequestID  = "X-Request-ID"
	contextRequestID = "request_id"
)

// Server 提供 /api 下的测量记录与分析接口。
type Server struct {
	router *gin.Engine

	mu   sync.RWMutex
	addr string
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr     string
	Service  MeasurementService
	Importer DocumentImporter
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("api http server requires a measurement service")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	NewRouter(cfg.Service, cfg.Importer).Register(engine.Group("/api"))
	return &Server{addr: cfg.Addr, router: engine}, nil
}

// Handler 暴露底层 gin engine，测试用 httptest 直接驱动。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 返回监听地址；Start 绑定端口后为实际地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start 绑定端口并提供服务，直到 ctx 取消或 Serve 出错。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warnf("[http] shutdown: %v", err)
	}
	return nil
}

// requestID 沿用调用方的 X-Request-ID，没有则生成一个，并回写到响应头。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"request_id", c.GetString(contextRequestID),
			"dur", time.Since(start),
		)
	}
}
