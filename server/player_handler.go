package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"podcastr/core/episodes"
	"podcastr/core/hub"
	"podcastr/core/player"
	"podcastr/core/session"
	"podcastr/logger"

	"github.com/gorilla/mux"
)

// 播放控制动作，HTTP 接口和 WebSocket 命令共用
const (
	ActionPlay     = "play"     // 追加单集并播放
	ActionPlaylist = "playlist" // 用首页列表替换队列
	ActionToggle   = "toggle"
	ActionPlaying  = "playing"
	ActionLoop     = "loop"
	ActionShuffle  = "shuffle"
	ActionNext     = "next"
	ActionPrevious = "previous"
	ActionClear    = "clear"
	ActionEnded    = "ended" // 音频播放结束
)

// errBadCommand 命令参数不合法
var errBadCommand = errors.New("bad command")

// applyCommand 在会话上执行一次播放控制
func (a *App) applyCommand(ctx context.Context, sess *session.Session, cmd hub.CommandData) (player.Snapshot, error) {
	switch cmd.Action {
	case ActionPlay:
		ep, err := a.episodes.Episode(ctx, cmd.EpisodeID)
		if err != nil {
			return player.Snapshot{}, err
		}
		return sess.Do(func(p *player.Player) { p.PlaySingle(ep) }), nil

	case ActionPlaylist:
		list, err := a.episodes.Latest(ctx)
		if err != nil {
			return player.Snapshot{}, err
		}
		// PlayList 要求索引合法，在这里校验
		if cmd.Index < 0 || cmd.Index >= len(list) {
			return player.Snapshot{}, fmt.Errorf("%w: index %d out of range [0, %d)", errBadCommand, cmd.Index, len(list))
		}
		return sess.Do(func(p *player.Player) { p.PlayList(list, cmd.Index) }), nil

	case ActionToggle:
		return sess.Do((*player.Player).TogglePlay), nil
	case ActionPlaying:
		return sess.Do(func(p *player.Player) { p.SetPlaying(cmd.Playing) }), nil
	case ActionLoop:
		return sess.Do((*player.Player).ToggleLoop), nil
	case ActionShuffle:
		return sess.Do((*player.Player).ToggleShuffle), nil
	case ActionNext:
		return sess.Do((*player.Player).PlayNext), nil
	case ActionPrevious:
		return sess.Do((*player.Player).PlayPrevious), nil
	case ActionClear:
		return sess.Do((*player.Player).Clear), nil
	case ActionEnded:
		return sess.Do((*player.Player).HandleEnded), nil
	}

	return player.Snapshot{}, fmt.Errorf("%w: unknown action %q", errBadCommand, cmd.Action)
}

// commandStatus 将命令错误映射为 HTTP 状态码
func commandStatus(err error) int {
	switch {
	case errors.Is(err, errBadCommand):
		return http.StatusBadRequest
	case errors.Is(err, episodes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, episodes.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetPlayerHandler 返回当前会话的播放状态
func (a *App) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// PlayerActionHandler POST /api/player/{action}
func (a *App) PlayerActionHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var cmd hub.CommandData
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cmd.Action = mux.Vars(r)["action"]

	snap, err := a.applyCommand(r.Context(), sess, cmd)
	if err != nil {
		status := commandStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("player command failed",
				logger.String("session", sess.ID),
				logger.String("action", cmd.Action),
				logger.ErrorField(err))
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
