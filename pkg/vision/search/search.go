// Package search 实现容差模板搜索引擎
//
// 引擎由两部分组成：
//   - 比较器 (Compare): 暴力扫描所有窗口位置，按颜色容差和像素容差筛选候选
//   - 归并器 (Focus): 把互相重叠的候选归并为每个区域一个最佳匹配
//
// 基本用法:
//
//	matches, err := search.Search(img, tpl,
//	    search.WithColorTolerance(8),
//	    search.WithPixelTolerance(2),
//	)
//
// 返回的匹配两两不重叠，顺序为归并顺序；按分数排序由调用方完成。
package search

import (
	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// Search 在 img 中查找 tpl 的所有不重叠匹配
func Search(img, tpl *matrix.Matrix, opts ...Option) ([]Match, error) {
	if err := Validate(img, tpl); err != nil {
		return nil, err
	}
	cfg := NewConfig(opts...)
	return run(img, tpl, cfg), nil
}

func run(img, tpl *matrix.Matrix, cfg Config) []Match {
	cands := compare(img, tpl, cfg)
	return Focus(cands, tpl.Rows(), tpl.Cols(), cfg.Clustering)
}
