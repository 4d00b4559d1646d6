package search

import (
	"context"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// Future 一次后台搜索的结果，只会被完成一次
type Future struct {
	done    chan struct{}
	matches []Match
	err     error
}

// SearchAsync 同步校验输入后在后台 goroutine 中执行搜索
// 校验失败时返回一个已完成的 Future；扫描开始后不可取消
func SearchAsync(img, tpl *matrix.Matrix, opts ...Option) *Future {
	f := &Future{done: make(chan struct{})}

	if err := Validate(img, tpl); err != nil {
		f.err = err
		close(f.done)
		return f
	}

	cfg := NewConfig(opts...)
	go func() {
		f.matches = run(img, tpl, cfg)
		close(f.done)
	}()
	return f
}

// Done 完成时关闭
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait 阻塞直到搜索完成
func (f *Future) Wait() ([]Match, error) {
	<-f.done
	return f.matches, f.err
}

// WaitContext 等待搜索完成或 ctx 结束；ctx 结束只放弃等待，扫描仍会跑完
func (f *Future) WaitContext(ctx context.Context) ([]Match, error) {
	select {
	case <-f.done:
		return f.matches, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
