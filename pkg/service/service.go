package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/internal/sysinfo"
	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/annotate"
	"github.com/zoeyai/tplsearch/pkg/vision/imageio"
	"github.com/zoeyai/tplsearch/pkg/vision/search"
)

// ErrBadRequest 请求本身不合法（图像描述以外的参数）
var ErrBadRequest = errors.New("bad request")

// DefaultTimeout 单次搜索的默认等待时间
const DefaultTimeout = 30 * time.Second

// Service WebSocket 与 gRPC 共用的搜索处理器
type Service struct {
	defaults []vision.Option
	timeout  time.Duration
	// scans 限制同时运行的扫描数，槽位在扫描真正结束时才释放
	scans chan struct{}
}

// New 创建服务，defaults 为请求未指定参数时使用的选项
// 同时运行的扫描数默认为 sysinfo.RecommendedWorkers()
func New(defaults ...vision.Option) *Service {
	return &Service{
		defaults: defaults,
		timeout:  DefaultTimeout,
		scans:    make(chan struct{}, sysinfo.RecommendedWorkers()),
	}
}

// SetMaxScans 设置同时运行的扫描数上限，n < 1 按 1 处理
// 必须在开始服务之前调用
func (s *Service) SetMaxScans(n int) {
	s.scans = make(chan struct{}, max(n, 1))
}

// SetTimeout 设置单次搜索的等待时间，<=0 表示不限制
func (s *Service) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Handle 执行一次搜索，失败时 Success 为 false 并在 Message 中给出原因
func (s *Service) Handle(ctx context.Context, req *SearchRequest) *SearchResponse {
	resp, _ := s.Search(ctx, req)
	return resp
}

// Search 执行一次搜索，失败时同时返回填好 Message 的响应和原始错误
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	resp, err := s.handle(ctx, req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if resp == nil {
		resp = &SearchResponse{Results: []vision.MatchResult{}}
	}
	if req != nil {
		resp.ID = req.ID
	}
	resp.ElapsedMs = elapsed
	if err != nil {
		resp.Success = false
		resp.Message = err.Error()
		logger.LogEvent("SVC", false, elapsed, fmt.Sprintf("%s: %v", resp.ID, err))
		return resp, err
	}
	resp.Success = true
	logger.LogEvent("SVC", true, elapsed, fmt.Sprintf("%s: %d matches", resp.ID, len(resp.Results)))
	return resp, nil
}

func (s *Service) handle(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: 请求为空", ErrBadRequest)
	}
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	f := vision.SearchAsync(req.Image, req.Template, opts...)
	// 等待超时后扫描仍会跑完，槽位跟随扫描而不是跟随请求
	go func() {
		<-f.Done()
		release()
	}()

	results, err := f.WaitContext(ctx)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{Results: results}
	if req.Annotate {
		resp.Annotated, err = annotated(req.Image, results)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// acquire 占用一个扫描槽位，ctx 结束前没有空闲槽位时返回 ctx 的错误
func (s *Service) acquire(ctx context.Context) (func(), error) {
	select {
	case s.scans <- struct{}{}:
		return func() { <-s.scans }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("等待空闲扫描槽位: %w", ctx.Err())
	}
}

// options 在默认选项之后追加请求中显式设置的参数
func (s *Service) options(req *SearchRequest) ([]vision.Option, error) {
	opts := append([]vision.Option(nil), s.defaults...)
	if req.ColorTolerance != nil {
		opts = append(opts, vision.WithColorTolerance(*req.ColorTolerance))
	}
	if req.PixelTolerance != nil {
		opts = append(opts, vision.WithPixelTolerance(*req.PixelTolerance))
	}
	if req.MaxResults != nil {
		opts = append(opts, vision.WithMaxResults(*req.MaxResults))
	}
	if req.Clustering != "" {
		c, err := search.ParseClustering(req.Clustering)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		opts = append(opts, vision.WithClustering(c))
	}
	return opts, nil
}

func annotated(img *vision.Image, results []vision.MatchResult) (string, error) {
	m, err := img.Matrix(vision.RoleImage)
	if err != nil {
		return "", err
	}
	src, err := imageio.FromMatrix(m)
	if err != nil {
		return "", err
	}
	out, err := annotate.Draw(src, results, annotate.DefaultConfig)
	if err != nil {
		return "", err
	}
	return annotate.ToDataURL(out, "png", 0)
}
