// Package service 通过 WebSocket 和 gRPC 对外提供模板搜索
package service

import (
	"github.com/zoeyai/tplsearch/internal/sysinfo"
	"github.com/zoeyai/tplsearch/pkg/vision"
)

// ==================== 搜索请求 ====================

// SearchRequest 一次搜索请求
// 图像数据在 JSON 中为 base64 编码的交错像素；未设置的参数使用服务端默认值
type SearchRequest struct {
	ID             string        `json:"id,omitempty"`
	Image          *vision.Image `json:"image"`
	Template       *vision.Image `json:"template"`
	ColorTolerance *int          `json:"colorTolerance,omitempty"`
	PixelTolerance *int          `json:"pixelTolerance,omitempty"`
	Clustering     string        `json:"clustering,omitempty"`
	MaxResults     *int          `json:"maxResults,omitempty"`
	// Annotate 为 true 时在响应中附带标注后的 PNG (data URL)
	Annotate bool `json:"annotate,omitempty"`
}

// SearchResponse 搜索结果
type SearchResponse struct {
	ID        string               `json:"id,omitempty"`
	Success   bool                 `json:"success"`
	Message   string               `json:"message,omitempty"`
	Results   []vision.MatchResult `json:"results"`
	ElapsedMs float64              `json:"elapsedMs"`
	Annotated string               `json:"annotated,omitempty"`
}

// ==================== WebSocket 消息类型 ====================

// 消息类型
const (
	MsgSearch = "search"
	MsgPing   = "ping"
	MsgPong   = "pong"
	MsgInfo   = "info"
	MsgResult = "result"
	MsgError  = "error"
)

// WsClientMessage 客户端消息
type WsClientMessage struct {
	Type   string         `json:"type"`
	Search *SearchRequest `json:"search,omitempty"`
}

// WsServerMessage 服务端消息
type WsServerMessage struct {
	Type      string              `json:"type"`
	Timestamp int64               `json:"timestamp"`
	Result    *SearchResponse     `json:"result,omitempty"`
	Info      *sysinfo.SystemInfo `json:"info,omitempty"`
	Message   string              `json:"message,omitempty"`
}
