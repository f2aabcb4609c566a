package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podcastr/logger"

	"github.com/fsnotify/fsnotify"
)

//go:embed web/templates/*.html
var templateFiles embed.FS

//go:embed web/static
var staticFiles embed.FS

// 每个页面模板都和 layout.html 一起解析
var pages = []string{"home.html", "episode.html", "error.html"}

// StaticFS 内嵌的静态资源，根目录即 /static/
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "web/static")
	if err != nil {
		panic(err)
	}
	return sub
}

var templateFuncs = template.FuncMap{
	// 剧集描述来自API，按原样渲染
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"add":      func(a, b int) int { return a + b },
	"json": func(v interface{}) (template.JS, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(data), nil
	},
}

// Templates 页面模板集合，开发模式下可以热加载
type Templates struct {
	dir string // 为空时使用内嵌模板

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// LoadTemplates dir 为空时加载内嵌模板，否则从磁盘加载
func LoadTemplates(dir string) (*Templates, error) {
	t := &Templates{dir: dir}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Templates) source() fs.FS {
	if t.dir != "" {
		return os.DirFS(t.dir)
	}
	sub, err := fs.Sub(templateFiles, "web/templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func (t *Templates) reload() error {
	src := t.source()
	parsed := make(map[string]*template.Template, len(pages))

	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(src, "layout.html", page)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		parsed[page] = tmpl
	}

	t.mu.Lock()
	t.pages = parsed
	t.mu.Unlock()
	return nil
}

// Render 渲染页面
func (t *Templates) Render(w io.Writer, page string, data interface{}) error {
	t.mu.RLock()
	tmpl, ok := t.pages[page]
	t.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %s not found", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Watch 监听模板目录，文件变化时重新解析，直到 ctx 结束
func (t *Templates) Watch(ctx context.Context) error {
	if t.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(t.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", t.dir, err)
	}
	logger.Info("watching templates", logger.String("dir", t.dir))

	// 编辑器保存时往往连续触发多个事件，合并处理
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				debounce = time.After(100 * time.Millisecond)
			}

		case <-debounce:
			debounce = nil
			if err := t.reload(); err != nil {
				// 保留旧模板，修好后下一次保存会重新加载
				logger.Warn("template reload failed", logger.ErrorField(err))
				continue
			}
			logger.Info("templates reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher error", logger.ErrorField(err))
		}
	}
}
