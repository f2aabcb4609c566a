package server

import (
	"bytes"
	"errors"
	"net/http"

	"podcastr/core/episodes"
	"podcastr/core/player"
	"podcastr/logger"
	"podcastr/model"

	"github.com/gorilla/mux"
)

// pageData 所有页面共用的数据
type pageData struct {
	Title   string
	Today   string
	Player  player.Snapshot
	Content interface{}
}

type homeContent struct {
	Latest      []model.Episode
	All         []model.Episode
	LatestCount int
	Unavailable bool
}

type episodeContent struct {
	Episode model.Episode
}

type errorContent struct {
	Status  int
	Message string
}

func (a *App) newPageData(r *http.Request, title string, content interface{}) pageData {
	return pageData{
		Title:   title,
		Today:   episodes.FormatToday(a.now()),
		Player:  sessionFromContext(r.Context()).Snapshot(),
		Content: content,
	}
}

func (a *App) render(w http.ResponseWriter, status int, page string, data pageData) {
	// 先渲染到缓冲区，失败时还能返回 500
	var buf bytes.Buffer
	if err := a.templates.Render(&buf, page, data); err != nil {
		logger.Error("failed to render page", logger.String("page", page), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// HomeHandler 首页：最新发布 + 全部剧集
func (a *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	content := homeContent{LatestCount: episodes.LatestCount}

	list, err := a.episodes.Latest(r.Context())
	if err != nil {
		// 数据不可用时展示空列表
		logger.Warn("episode list unavailable", logger.ErrorField(err))
		content.Unavailable = true
	}
	content.Latest, content.All = episodes.Split(list)

	a.render(w, http.StatusOK, "home.html", a.newPageData(r, "Podcastr", content))
}

// EpisodeHandler 单集详情页
func (a *App) EpisodeHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ep, err := a.episodes.Episode(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, episodes.ErrNotFound):
			a.renderError(w, r, http.StatusNotFound, "Episódio não encontrado")
		default:
			logger.Warn("episode unavailable", logger.String("id", id), logger.ErrorField(err))
			a.renderError(w, r, http.StatusServiceUnavailable, "Não foi possível carregar o episódio agora")
		}
		return
	}

	a.render(w, http.StatusOK, "episode.html", a.newPageData(r, ep.Title+" | Podcastr", episodeContent{Episode: ep}))
}

// NotFoundHandler 未匹配的路由
func (a *App) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r.Context()) == nil {
		// 404 路由不经过会话中间件
		a.sessionMiddleware(http.HandlerFunc(a.NotFoundHandler)).ServeHTTP(w, r)
		return
	}
	a.renderError(w, r, http.StatusNotFound, "Página não encontrada")
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	a.render(w, status, "error.html", a.newPageData(r, "Podcastr", errorContent{Status: status, Message: message}))
}
