// Package server 验证服务的 HTTP 接口
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/report"
)

// shutdownTimeout 优雅退出的等待时间
const shutdownTimeout = 5 * time.Second

// Verifier 验证上传的部署单元
type Verifier interface {
	VerifyBytes(ctx context.Context, name string, data []byte) (*report.Report, error)
}

// Reports 已保存的报告
type Reports interface {
	Get(ctx context.Context, id string) (*report.Report, error)
	List(ctx context.Context, archive string, limit int) ([]*report.Report, error)
}

// Deps 服务依赖
type Deps struct {
	Verifier Verifier
	// Reports 为 nil 时查询接口返回 501
	Reports Reports
	Log     *zap.Logger
}

// Server HTTP 服务
type Server struct {
	cfg      config.ServerConfig
	r        *gin.Engine
	verifier Verifier
	reports  Reports
	log      *zap.Logger
}

// New 创建服务并注册路由
func New(cfg config.ServerConfig, deps Deps) *Server {
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	s := &Server{
		cfg:      cfg,
		r:        r,
		verifier: deps.Verifier,
		reports:  deps.Reports,
		log:      deps.Log,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	r.Use(gin.Recovery(), s.accessLog())
	s.routes()
	return s
}

// Handler 返回 http.Handler（测试与嵌入使用）
func (s *Server) Handler() http.Handler {
	return s.r
}

// Run 监听直到 ctx 结束，然后优雅退出
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("verification service listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("verification service shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	registerDocs(s.r)

	h := &handler{verifier: s.verifier, reports: s.reports, maxUpload: s.cfg.MaxUploadMB << 20, log: s.log}
	v1 := s.r.Group("/v1")
	if s.cfg.JWTSecret != "" {
		v1.Use(BearerAuth([]byte(s.cfg.JWTSecret)))
	}
	{
		v1.POST("/verifications", h.HandleVerify)
		v1.GET("/verifications", h.HandleList)
		v1.GET("/verifications/:id", h.HandleGet)
		v1.GET("/sections/:id", h.HandleSection)
	}
}

// accessLog 请求日志
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("subject", Subject(c)),
			zap.Duration("latency", time.Since(start)))
	}
}
