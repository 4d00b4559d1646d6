package search

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Overlaps 两个同尺寸窗口是否共享至少一个像素
func Overlaps(a, b Match, rows, cols int) bool {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr < rows && dc < cols
}

// Focus 把重叠的候选归并为每个区域一个最佳匹配，结果两两不重叠
// 返回顺序为归并顺序，不保证按分数排序
func Focus(cands []Match, rows, cols int, strategy Clustering) []Match {
	if len(cands) == 0 {
		return nil
	}
	if strategy == ClusterComponents {
		return focusComponents(cands, rows, cols)
	}
	return focusGreedy(cands, rows, cols)
}

// focusGreedy 第一个候选总是保留；之后的候选若与已保留项重叠，
// 则替换所有分数比它高的重叠项，否则作为新项追加
func focusGreedy(cands []Match, rows, cols int) []Match {
	kept := make([]Match, 1, 16)
	kept[0] = cands[0]

	for _, curr := range cands[1:] {
		overlapped := false
		for k, prev := range kept {
			if !Overlaps(curr, prev, rows, cols) {
				continue
			}
			overlapped = true
			if curr.Score < prev.Score {
				kept[k] = curr
			}
		}
		if !overlapped {
			kept = append(kept, curr)
		}
	}

	// 同一候选可能替换了多个槽位
	kept = lo.Uniq(kept)
	return settle(kept, rows, cols)
}

// settle 按分数从低到高接受不与已接受项重叠的条目，保持原有顺序输出
// 贪心归并遇到链式重叠时可能留下互相重叠的条目
func settle(kept []Match, rows, cols int) []Match {
	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(kept[a].Score, kept[b].Score)
	})

	accepted := make([]int, 0, len(kept))
	keep := make([]bool, len(kept))
	for _, i := range order {
		free := true
		for _, j := range accepted {
			if Overlaps(kept[i], kept[j], rows, cols) {
				free = false
				break
			}
		}
		if free {
			keep[i] = true
			accepted = append(accepted, i)
		}
	}

	return lo.Filter(kept, func(_ Match, i int) bool {
		return keep[i]
	})
}

type cell struct {
	r, c int
}

// focusComponents 把所有候选按重叠关系连成连通分量，每个分量保留分数最低的一个
// 分数相同时保留输入顺序中靠前的；输出按代表项的输入顺序
func focusComponents(cands []Match, rows, cols int) []Match {
	parent := make([]int, len(cands))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	// 按模板尺寸分桶，重叠的窗口只可能落在相邻桶中
	buckets := make(map[cell][]int)
	for i, m := range cands {
		key := cell{floorDiv(m.Row, rows), floorDiv(m.Col, cols)}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				for _, j := range buckets[cell{key.r + dr, key.c + dc}] {
					if Overlaps(m, cands[j], rows, cols) {
						union(i, j)
					}
				}
			}
		}
		buckets[key] = append(buckets[key], i)
	}

	best := make(map[int]int)
	for i, m := range cands {
		root := find(i)
		b, ok := best[root]
		if !ok || m.Score < cands[b].Score {
			best[root] = i
		}
	}

	reps := lo.Values(best)
	slices.Sort(reps)
	return lo.Map(reps, func(i int, _ int) Match {
		return cands[i]
	})
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
