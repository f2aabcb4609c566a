package server

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"podcastr/config"
	"podcastr/logger"
	"podcastr/storage"
)

// StaticHandler 提供 /static/ 下的资源：优先读 MinIO，读不到时使用内嵌资源
type StaticHandler struct {
	cfg      *config.Config
	embedded http.Handler
}

// NewStaticHandler 创建 StaticHandler 实例
func NewStaticHandler(cfg *config.Config) *StaticHandler {
	return &StaticHandler{
		cfg:      cfg,
		embedded: http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS()))),
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/")

	if storage.GetMinioClient() != nil && !strings.HasSuffix(objectPath, "/") {
		if h.serveFromMinio(w, r, objectPath) {
			return
		}
	}

	h.embedded.ServeHTTP(w, r)
}

// serveFromMinio 成功写出响应时返回 true
func (h *StaticHandler) serveFromMinio(w http.ResponseWriter, r *http.Request, objectPath string) bool {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := storage.GetObject(ctx, objectPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read asset from MinIO", logger.String("object", objectPath), logger.ErrorField(err))
		}
		return false
	}
	defer object.Close()

	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.ErrorField(err))
	}
	return true
}
