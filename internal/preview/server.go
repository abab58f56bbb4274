// Package preview serves an assembled chart bundle over HTTP for local
// inspection.
package preview

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	healthEndpointPathConstant  = "/healthz"
	chartIndexPathConstant      = "/chart"
	chartFilePathConstant       = "/chart/*path"
	healthStatusValueConstant   = "ok"
	chartFileNotFoundMessage    = "chart file not found"
	plainTextContentTypeConstant = "text/plain; charset=utf-8"
)

// Server exposes the chart bundle produced by an orchestration run.
type Server struct {
	assembledBundle map[string]string
	logger          *zap.Logger
}

// NewServer constructs a Server for the supplied bundle. A nil logger falls
// back to a no-op logger.
func NewServer(assembledBundle map[string]string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{assembledBundle: assembledBundle, logger: logger}
}

// Router builds the HTTP handler serving health, index, and file endpoints.
func (server *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(healthEndpointPathConstant, server.handleHealth)
	router.GET(chartIndexPathConstant, server.handleIndex)
	router.GET(chartFilePathConstant, server.handleFile)

	return router
}

// ListenAndServe runs the preview server on the supplied address until the
// listener fails.
func (server *Server) ListenAndServe(listenAddress string) error {
	server.logger.Info("chart preview server starting", zap.String("address", listenAddress))
	return server.Router().Run(listenAddress)
}

func (server *Server) handleHealth(requestContext *gin.Context) {
	requestContext.JSON(http.StatusOK, gin.H{"status": healthStatusValueConstant})
}

func (server *Server) handleIndex(requestContext *gin.Context) {
	bundlePaths := make([]string, 0, len(server.assembledBundle))
	for bundlePath := range server.assembledBundle {
		bundlePaths = append(bundlePaths, bundlePath)
	}
	sort.Strings(bundlePaths)

	requestContext.JSON(http.StatusOK, gin.H{"files": bundlePaths})
}

func (server *Server) handleFile(requestContext *gin.Context) {
	requestedPath := strings.TrimPrefix(requestContext.Param("path"), "/")
	fileContent, filePresent := server.assembledBundle[requestedPath]
	if !filePresent {
		requestContext.JSON(http.StatusNotFound, gin.H{"error": chartFileNotFoundMessage})
		return
	}
	requestContext.Data(http.StatusOK, plainTextContentTypeConstant, []byte(fileContent))
}
