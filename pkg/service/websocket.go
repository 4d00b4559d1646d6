package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/internal/sysinfo"
)

// 单条消息的最大长度，图像以 base64 传输
const maxMessageSize = 64 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebsocketHandler 返回处理 /ws 连接的 http.Handler
func (s *Service) WebsocketHandler() http.Handler {
	return http.HandlerFunc(s.serveWs)
}

// Mux 注册 /ws 和 /healthz
func (s *Service) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.WebsocketHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sysinfo.GetSystemInfo())
	})
	return mux
}

// ListenAndServe 启动 HTTP 服务，ctx 结束时优雅关闭
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("WebSocket 服务监听 %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("WebSocket 服务启动失败: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// wsConn 一个 WebSocket 连接，写操作串行化
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg *WsServerMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Service) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	c := &wsConn{conn: conn}
	remote := conn.RemoteAddr().String()
	logger.Info("WebSocket 连接: %s", remote)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	// 每个连接同时处理的搜索数有上限，满了之后暂停读取
	inflight := make(chan struct{}, sysinfo.RecommendedWorkers())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket 读取失败 (%s): %v", remote, err)
			}
			logger.Info("WebSocket 断开: %s", remote)
			return
		}

		var msg WsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(&WsServerMessage{Type: MsgError, Message: fmt.Sprintf("解析消息失败: %v", err)})
			continue
		}

		switch msg.Type {
		case MsgPing:
			c.send(&WsServerMessage{Type: MsgPong})
		case MsgInfo:
			c.send(&WsServerMessage{Type: MsgInfo, Info: sysinfo.GetSystemInfo()})
		case MsgSearch:
			// 每个搜索独立执行，结果按完成顺序返回，用 id 关联
			select {
			case inflight <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func(req *SearchRequest) {
				defer wg.Done()
				defer func() { <-inflight }()
				resp := s.Handle(ctx, req)
				if err := c.send(&WsServerMessage{Type: MsgResult, Result: resp}); err != nil {
					logger.Warn("WebSocket 发送失败 (%s): %v", remote, err)
				}
			}(msg.Search)
		default:
			c.send(&WsServerMessage{Type: MsgError, Message: fmt.Sprintf("未知的消息类型: %s", msg.Type)})
		}
	}
}
