package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"winterbot/internal/web/middleware"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type WebServer struct {
	router *gin.Engine
	server *http.Server
	logger *log.Logger
}

// NewWebServer creates the REST server. Every route registered on Router
// afterwards sees the providers for app.
func NewWebServer(app Application, addr string, logger *log.Logger) *WebServer {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.WithPrefix("WEB")

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), Provide(app))

	ws := &WebServer{
		router: router,
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
	router.GET("/healthz", ws.health)
	return ws
}

func (ws *WebServer) Router() *gin.Engine {
	return ws.router
}

// Start serves HTTP until ctx is done, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("listening", "addr", ws.server.Addr)
		errCh <- ws.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ws.server.Shutdown(sctx); err != nil {
		return err
	}
	ws.logger.Info("stopped")
	return nil
}

func (ws *WebServer) health(c *gin.Context) {
	status := gin.H{"database": "ok"}
	if up := Bot(c).Uptime(); !up.IsZero() {
		status["uptime"] = time.Since(up).Round(time.Second).String()
	}

	if _, err := Conn(c).Exec(c, "SELECT 1"); err != nil {
		ws.logger.Error("health check failed", "err", err)
		status["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
