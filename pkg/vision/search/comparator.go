package search

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/zoeyai/tplsearch/pkg/vision/matrix"
)

// Match 一个候选匹配：窗口左上角位置和偏差分数（0 为完全匹配）
type Match struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Score float64 `json:"score"`
}

// comparator 持有一次扫描的只读状态
type comparator struct {
	srcPlanes [][]float32
	tplPlanes [][]float32
	srcCols   int
	tplRows   int
	tplCols   int
	colorTol  float32
	pixelTol  int
	// pivot 预筛选列，-1 表示不启用
	pivot int
}

// Compare 扫描所有模板可完整放入源图像的位置，返回通过容差校验的候选
// 模板大于源图像时返回空列表
func Compare(img, tpl *matrix.Matrix, opts ...Option) ([]Match, error) {
	if err := Validate(img, tpl); err != nil {
		return nil, err
	}
	return compare(img, tpl, NewConfig(opts...)), nil
}

func compare(img, tpl *matrix.Matrix, cfg Config) []Match {
	if tpl.Rows() > img.Rows() || tpl.Cols() > img.Cols() {
		return nil
	}

	n := compareChannels(img, tpl)
	c := &comparator{
		srcPlanes: planes(img, n),
		tplPlanes: planes(tpl, n),
		srcCols:   img.Cols(),
		tplRows:   tpl.Rows(),
		tplCols:   tpl.Cols(),
		colorTol:  float32(cfg.ColorTolerance),
		pixelTol:  cfg.PixelTolerance,
		pivot:     -1,
	}
	if c.tplCols > 1 {
		c.pivot = pivotColumn(c.tplPlanes, c.tplRows, c.tplCols)
	}

	return c.scan(img.Rows()-tpl.Rows()+1, img.Cols()-tpl.Cols()+1, cfg.Workers)
}

// compareChannels 两个矩阵共同的颜色通道数
// 取较小的通道数，若为偶数则最后一个是 Alpha，不参与比较
func compareChannels(img, tpl *matrix.Matrix) int {
	n := min(img.Channels(), tpl.Channels())
	if n%2 == 0 {
		n--
	}
	return n
}

func planes(m *matrix.Matrix, n int) [][]float32 {
	out := make([][]float32, n)
	for c := range out {
		out[c] = m.Plane(c)
	}
	return out
}

// pivotColumn 选出各通道标准差之和最大的模板列
func pivotColumn(tplPlanes [][]float32, rows, cols int) int {
	if rows < 2 {
		return 0
	}

	best, bestDev := 0, -1.0
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		var dev float64
		for _, p := range tplPlanes {
			for i := 0; i < rows; i++ {
				column[i] = float64(p[i*cols+j])
			}
			dev += stat.StdDev(column, nil)
		}
		if dev > bestDev {
			best, bestDev = j, dev
		}
	}
	return best
}

// scan 按行带把偏移划分给多个 worker，每个 worker 写独立的结果切片
// 结果按行带顺序拼接，因此输出始终是行优先顺序
func (c *comparator) scan(offRows, offCols, workers int) []Match {
	if workers > offRows {
		workers = offRows
	}
	if workers <= 1 {
		return c.band(0, offRows, offCols)
	}

	rowsPerWorker := (offRows + workers - 1) / workers
	results := make([][]Match, workers)

	var (
		wg        sync.WaitGroup
		panicOnce sync.Once
		panicVal  any
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, offRows)
		go func(w, start, end int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicVal = r })
				}
			}()
			if start < end {
				results[w] = c.band(start, end, offCols)
			}
		}(w, start, end)
	}
	wg.Wait()

	// 校验通过后计算不应失败，worker 中的 panic 属于缺陷，原样抛出
	if panicVal != nil {
		panic(fmt.Sprintf("search: comparator worker panicked: %v", panicVal))
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]Match, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (c *comparator) band(startRow, endRow, offCols int) []Match {
	var out []Match
	for r := startRow; r < endRow; r++ {
		for col := 0; col < offCols; col++ {
			if score, ok := c.window(r, col); ok {
				out = append(out, Match{Row: r, Col: col, Score: score})
			}
		}
	}
	return out
}

// window 评估一个窗口，失配像素超过容差时返回 false
func (c *comparator) window(r, col int) (float64, bool) {
	if c.pivot >= 0 && c.pivotRejects(r, col) {
		return 0, false
	}

	misses := 0
	var score float64
	for i := 0; i < c.tplRows; i++ {
		srcBase := (r+i)*c.srcCols + col
		tplBase := i * c.tplCols
		for j := 0; j < c.tplCols; j++ {
			dev, missed := c.pixel(srcBase+j, tplBase+j)
			if !missed {
				continue
			}
			misses++
			if misses > c.pixelTol {
				return 0, false
			}
			score += dev
		}
	}
	return score, true
}

// pivotRejects 只比较预筛选列，该列的失配数已超过容差时整个窗口必然被淘汰
func (c *comparator) pivotRejects(r, col int) bool {
	misses := 0
	for i := 0; i < c.tplRows; i++ {
		src := (r+i)*c.srcCols + col + c.pivot
		tpl := i*c.tplCols + c.pivot
		if _, missed := c.pixel(src, tpl); missed {
			misses++
			if misses > c.pixelTol {
				return true
			}
		}
	}
	return false
}

// pixel 比较一个像素的所有颜色通道
// 任一通道差值超过颜色容差即视为失配，偏差为各通道超出容差部分之和
func (c *comparator) pixel(src, tpl int) (float64, bool) {
	var dev float64
	missed := false
	for ch, sp := range c.srcPlanes {
		d := sp[src] - c.tplPlanes[ch][tpl]
		if d < 0 {
			d = -d
		}
		if d > c.colorTol {
			missed = true
			dev += float64(d - c.colorTol)
		}
	}
	return dev, missed
}
