// Package vision 提供容差模板搜索的调用层
//
// 主要功能:
//   - 校验原始像素缓冲区 (Image) 并转换为采样矩阵
//   - 调用 search 引擎，把结果整理为按分数升序排列的 MatchResult
//   - 从文件、image.Image 或矩阵加载输入
//
// 基本用法:
//
//	results, err := vision.FindAll("screen.png", "button.png",
//	    vision.WithColorTolerance(8),
//	    vision.WithPixelTolerance(2),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Printf("位置: (%d, %d) 分数: %.1f\n", r.X, r.Y, r.Accuracy)
//	}
package vision

import (
	"cmp"
	"context"
	"fmt"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/pkg/vision/imageio"
	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
	"github.com/zoeyai/tplsearch/pkg/vision/search"
)

// ============ 搜索 ============

// Search 在原始像素缓冲区 source 中查找 template
// 结果按 Accuracy 升序稳定排序，未找到时返回空切片
func Search(source, template *Image, opts ...Option) ([]MatchResult, error) {
	img, tpl, err := resolvePair(source, template)
	if err != nil {
		return nil, err
	}
	return SearchMatrix(img, tpl, opts...)
}

// SearchMatrix 直接在采样矩阵上搜索
func SearchMatrix(img, tpl *matrix.Matrix, opts ...Option) ([]MatchResult, error) {
	cfg := newMatchConfig(opts)

	start := time.Now()
	matches, err := search.Search(img, tpl, buildSearchOptions(cfg)...)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		logger.LogEvent("SRCH", false, elapsed, err.Error())
		return nil, err
	}

	results := Assemble(matches, tpl.Rows(), tpl.Cols(), cfg.maxResults)
	logger.LogEvent("SRCH", true, elapsed,
		fmt.Sprintf("%s in %s: %d matches", tpl, img, len(results)))
	return results, nil
}

// FindAll 在源图像中查找模板的所有不重叠位置
// screen, template: 文件路径、image.Image、*Image 或 *matrix.Matrix
func FindAll(screen, template ImageInput, opts ...Option) ([]MatchResult, error) {
	img, err := loadRole(screen, RoleImage)
	if err != nil {
		return nil, err
	}
	tpl, err := loadRole(template, RoleTemplate)
	if err != nil {
		return nil, err
	}
	img, tpl = PairColorDepth(img, tpl)
	return SearchMatrix(img, tpl, opts...)
}

// PairColorDepth 一方为彩色、另一方为灰度时把灰度一方展开为彩色
// 用于从文件加载的图像，灰度 PNG 与彩色截图可以直接比较
func PairColorDepth(img, tpl *matrix.Matrix) (*matrix.Matrix, *matrix.Matrix) {
	if img.Validate() != nil || tpl.Validate() != nil {
		return img, tpl
	}
	switch {
	case img.ColorChannels() == 3 && tpl.ColorChannels() == 1:
		tpl = tpl.ExpandGray()
	case img.ColorChannels() == 1 && tpl.ColorChannels() == 3:
		img = img.ExpandGray()
	}
	return img, tpl
}

// FindLocation 返回分数最好的匹配中心点，未找到时返回 nil
func FindLocation(screen, template ImageInput, opts ...Option) (*Point, error) {
	results, err := FindAll(screen, template, append(opts, WithMaxResults(1))...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	p := results[0].Center()
	return &p, nil
}

// Assemble 把引擎结果转换为 MatchResult，按分数升序稳定排序
// maxResults > 0 时截断
func Assemble(matches []search.Match, rows, cols, maxResults int) []MatchResult {
	results := lo.Map(matches, func(m search.Match, _ int) MatchResult {
		return MatchResult{
			X:         m.Col,
			Y:         m.Row,
			Accuracy:  m.Score,
			Rectangle: NewRectangle(m.Col, m.Row, cols, rows),
		}
	})
	slices.SortStableFunc(results, func(a, b MatchResult) int {
		return cmp.Compare(a.Accuracy, b.Accuracy)
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// ============ 异步 ============

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Future 异步搜索的结果
type Future struct {
	inner      *search.Future
	err        error
	rows, cols int
	maxResults int
}

// SearchAsync 同步校验输入后在后台执行搜索
func SearchAsync(source, template *Image, opts ...Option) *Future {
	img, tpl, err := resolvePair(source, template)
	if err != nil {
		return &Future{err: err}
	}
	if err := search.Validate(img, tpl); err != nil {
		return &Future{err: err}
	}

	cfg := newMatchConfig(opts)
	return &Future{
		inner:      search.SearchAsync(img, tpl, buildSearchOptions(cfg)...),
		rows:       tpl.Rows(),
		cols:       tpl.Cols(),
		maxResults: cfg.maxResults,
	}
}

// Done 完成时关闭
func (f *Future) Done() <-chan struct{} {
	if f.inner == nil {
		return closedChan
	}
	return f.inner.Done()
}

// Wait 阻塞直到搜索完成
func (f *Future) Wait() ([]MatchResult, error) {
	return f.WaitContext(context.Background())
}

// WaitContext 等待搜索完成或 ctx 结束
func (f *Future) WaitContext(ctx context.Context) ([]MatchResult, error) {
	if f.inner == nil {
		return nil, f.err
	}
	matches, err := f.inner.WaitContext(ctx)
	if err != nil {
		return nil, err
	}
	return Assemble(matches, f.rows, f.cols, f.maxResults), nil
}

// SearchCallback 异步搜索，完成后恰好调用一次 callback
// 校验失败时 callback 也在后台 goroutine 中调用
func SearchCallback(source, template *Image, callback func([]MatchResult, error), opts ...Option) {
	f := SearchAsync(source, template, opts...)
	var once sync.Once
	go func() {
		results, err := f.Wait()
		once.Do(func() { callback(results, err) })
	}()
}

// ============ 输入 ============

// LoadMatrix 加载图像输入为采样矩阵
func LoadMatrix(input ImageInput) (*matrix.Matrix, error) {
	return loadRole(input, RoleImage)
}

func loadRole(input ImageInput, role string) (*matrix.Matrix, error) {
	start := time.Now()
	m, err := load(input, role)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		logger.LogEvent("LOAD", false, elapsed, fmt.Sprintf("%s: %v", role, err))
		return nil, err
	}
	logger.Debug("加载%s: %s (%.1fms)", role, m, elapsed)
	return m, nil
}

func load(input ImageInput, role string) (*matrix.Matrix, error) {
	switch v := input.(type) {
	case string:
		return imageio.LoadMatrix(v, false)
	case image.Image:
		return imageio.ToMatrix(v, false)
	case *Image:
		return v.Matrix(role)
	case Image:
		return v.Matrix(role)
	case *matrix.Matrix:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return v, nil
	case nil:
		return nil, &ImageError{Role: role, Err: ErrBadObject}
	default:
		return nil, fmt.Errorf("不支持的%s输入类型: %T", role, input)
	}
}

func resolvePair(source, template *Image) (*matrix.Matrix, *matrix.Matrix, error) {
	img, err := source.Matrix(RoleImage)
	if err != nil {
		return nil, nil, err
	}
	tpl, err := template.Matrix(RoleTemplate)
	if err != nil {
		return nil, nil, err
	}
	return img, tpl, nil
}
