package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/websocket"

	"spotex/biz/engine"
)

const shardNum = 32

var upgrader = websocket.HertzUpgrader{
	CheckOrigin: func(ctx *app.RequestContext) bool {
		return true // 允许所有跨域 WebSocket 连接
	},
}

// SymbolShard 按 symbol 分片的订阅表，降低锁竞争
type SymbolShard struct {
	Mu   sync.RWMutex
	Subs map[string]map[*websocket.Conn]struct{}
}

var symbolShards [shardNum]*SymbolShard

// 用户私有通道：成交回报单播
var (
	userMu    sync.RWMutex
	userConns = make(map[string]map[*websocket.Conn]struct{})
)

func init() {
	for i := 0; i < shardNum; i++ {
		symbolShards[i] = &SymbolShard{
			Subs: make(map[string]map[*websocket.Conn]struct{}),
		}
	}
}

func getSymbolShard(symbol string) *SymbolShard {
	var sum int
	for _, b := range []byte(symbol) {
		sum += int(b)
	}
	return symbolShards[sum%shardNum]
}

// Broadcast 向订阅了该 symbol 的全部连接推送
func Broadcast(symbol string, msg []byte) {
	shard := getSymbolShard(symbol)
	shard.Mu.RLock()
	conns := make([]*websocket.Conn, 0, len(shard.Subs[symbol]))
	for conn := range shard.Subs[symbol] {
		conns = append(conns, conn)
	}
	shard.Mu.RUnlock()

	for _, conn := range conns {
		c := conn
		task := func() {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				hlog.Warnf("broadcast write failed, remote=%v, err=%v", c.RemoteAddr(), err)
				dropConn(symbol, c)
			}
		}
		if engine.BroadcastPool != nil {
			_ = engine.BroadcastPool.Submit(task)
		} else {
			task()
		}
	}
}

// Unicast 向某用户的全部连接推送
func Unicast(userID string, msg []byte) {
	userMu.RLock()
	conns := make([]*websocket.Conn, 0, len(userConns[userID]))
	for conn := range userConns[userID] {
		conns = append(conns, conn)
	}
	userMu.RUnlock()

	for _, conn := range conns {
		c := conn
		task := func() {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				hlog.Warnf("unicast write failed, user=%s, err=%v", userID, err)
			}
		}
		if engine.BroadcastPool != nil {
			_ = engine.BroadcastPool.Submit(task)
		} else {
			task()
		}
	}
}

func subscribe(symbol string, conn *websocket.Conn) {
	shard := getSymbolShard(symbol)
	shard.Mu.Lock()
	if shard.Subs[symbol] == nil {
		shard.Subs[symbol] = make(map[*websocket.Conn]struct{})
	}
	shard.Subs[symbol][conn] = struct{}{}
	shard.Mu.Unlock()
}

func unsubscribe(symbol string, conn *websocket.Conn) {
	shard := getSymbolShard(symbol)
	shard.Mu.Lock()
	delete(shard.Subs[symbol], conn)
	if len(shard.Subs[symbol]) == 0 {
		delete(shard.Subs, symbol)
	}
	shard.Mu.Unlock()
}

func dropConn(symbol string, conn *websocket.Conn) {
	unsubscribe(symbol, conn)
	userMu.Lock()
	for uid, conns := range userConns {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(userConns, uid)
		}
	}
	userMu.Unlock()
	_ = conn.Close()
}

func identify(userID string, conn *websocket.Conn) {
	userMu.Lock()
	if userConns[userID] == nil {
		userConns[userID] = make(map[*websocket.Conn]struct{})
	}
	userConns[userID][conn] = struct{}{}
	userMu.Unlock()
}

type wsClientMsg struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

func wsHandler(ctx context.Context, c *app.RequestContext) {
	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		defer func() {
			cleanConn(conn)
			_ = conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Action {
			case "subscribe":
				if msg.Channel != "" {
					subscribe(msg.Channel, conn)
					ack, _ := json.Marshal(map[string]interface{}{
						"type":    "subscription_ack",
						"channel": msg.Channel,
					})
					_ = conn.WriteMessage(websocket.TextMessage, ack)
				}
			case "unsubscribe":
				if msg.Channel != "" {
					unsubscribe(msg.Channel, conn)
				}
			case "identify":
				if msg.UserID != "" {
					identify(msg.UserID, conn)
				}
			}
		}
	})
	if err != nil {
		hlog.Errorf("ws upgrade failed: %v", err)
	}
}

func cleanConn(conn *websocket.Conn) {
	for i := 0; i < shardNum; i++ {
		shard := symbolShards[i]
		shard.Mu.Lock()
		for symbol, conns := range shard.Subs {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(shard.Subs, symbol)
			}
		}
		shard.Mu.Unlock()
	}
	userMu.Lock()
	for uid, conns := range userConns {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(userConns, uid)
		}
	}
	userMu.Unlock()
}

// StartWebSocketServer 启动独立端口的 WebSocket 推送服务
func StartWebSocketServer(addr string) {
	h := server.New(server.WithHostPorts(addr))
	h.NoHijackConnPool = true
	h.GET("/ws", wsHandler)
	go h.Spin()
	hlog.Infof("WebSocket server started at %s", addr)
}
