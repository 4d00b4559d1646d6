package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/internal/sysinfo"
	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/search"
)

// gRPC 服务名与方法
const (
	GRPCServiceName = "tplsearch.Search"
	methodFind      = "/" + GRPCServiceName + "/Find"
	methodInfo      = "/" + GRPCServiceName + "/Info"
)

// searchServer 服务端接口，消息使用 google.protobuf.Struct 承载 JSON
type searchServer interface {
	Find(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Info(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*searchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Find", Handler: unaryHandler(methodFind, searchServer.Find)},
		{MethodName: "Info", Handler: unaryHandler(methodInfo, searchServer.Info)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tplsearch.proto",
}

func unaryHandler(method string, call func(searchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(searchServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(searchServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// grpcServer 把 Service 适配为 searchServer
type grpcServer struct {
	svc *Service
}

func (g *grpcServer) Find(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SearchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "解析请求失败: %v", err)
	}
	resp, err := g.svc.Search(ctx, &req)
	if err != nil {
		return nil, status.Error(errorCode(err), err.Error())
	}
	return toStruct(resp)
}

func (g *grpcServer) Info(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(sysinfo.GetSystemInfo())
}

// errorCode 把搜索错误映射为 gRPC 状态码
func errorCode(err error) codes.Code {
	var imgErr *vision.ImageError
	var argErr *search.ArgumentError
	switch {
	case errors.As(err, &imgErr), errors.As(err, &argErr),
		errors.Is(err, search.ErrChannelMismatch), errors.Is(err, ErrBadRequest):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// NewGRPCServer 创建注册了搜索服务的 gRPC 服务端
func (s *Service) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, &grpcServer{svc: s})
	return srv
}

// ServeGRPC 在 lis 上提供 gRPC 服务，ctx 结束时优雅关闭
func (s *Service) ServeGRPC(ctx context.Context, lis net.Listener) error {
	srv := s.NewGRPCServer(grpc.MaxRecvMsgSize(maxMessageSize))
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	logger.Info("gRPC 服务监听 %s", lis.Addr())
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("gRPC 服务异常退出: %w", err)
	}
	return nil
}

// ==================== Client ====================

// Client gRPC 客户端
type Client struct {
	conn *grpc.ClientConn
}

// Dial 创建客户端，未提供凭据时使用明文连接
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMessageSize), grpc.MaxCallSendMsgSize(maxMessageSize)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Find 远程搜索
func (c *Client) Find(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodFind, in, out); err != nil {
		return nil, err
	}
	var resp SearchResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info 获取服务端系统信息
func (c *Client) Info(ctx context.Context) (*sysinfo.SystemInfo, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodInfo, &structpb.Struct{}, out); err != nil {
		return nil, err
	}
	var info sysinfo.SystemInfo
	if err := fromStruct(out, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// toStruct 经由 JSON 把 v 转换为 Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化失败: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("转换 Struct 失败: %w", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("转换 Struct 失败: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}
	return nil
}
