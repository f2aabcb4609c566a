package server

import (
	"context"
	"net/http"

	"podcastr/core/hub"
	"podcastr/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketHandler 订阅当前会话的播放状态，同时接受控制命令
func (a *App) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := hub.NewClient(a.hub, conn, sess.ID)
	// 先注册再推送当前状态，避免漏掉注册期间的广播
	a.hub.Register(client)
	client.SendMessage(hub.MsgTypeState, sess.Snapshot())

	go client.WritePump()
	go client.ReadPump(context.Background(), func(ctx context.Context, c *hub.Client, cmd hub.CommandData) {
		// 成功的命令会通过会话回调广播，这里只需要回报错误
		if _, err := a.applyCommand(ctx, sess, cmd); err != nil {
			c.SendMessage(hub.MsgTypeError, hub.ErrorData{Message: err.Error()})
		}
	})

	logger.Debug("websocket connected", logger.String("session", sess.ID))
}
