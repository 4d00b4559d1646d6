package screen

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid 把区域等分为 Rows×Cols 的网格，Row/Col 为目标格子 (1-based)
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

// ParseGrid 解析网格字符串
// 格式: rows.cols.row.col (如 "2.2.1.1" 表示 2x2 网格的第1行第1列)
func ParseGrid(s string) (*Grid, error) {
	if s == "" {
		return nil, fmt.Errorf("网格字符串为空")
	}

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("无效的网格格式: %s (期望格式: rows.cols.row.col)", s)
	}

	names := [4]string{"行数", "列数", "目标行", "目标列"}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("无效的%s: %s", names[i], p)
		}
		v[i] = n
	}

	g := &Grid{Rows: v[0], Cols: v[1], Row: v[2], Col: v[3]}
	if g.Rows < 1 || g.Cols < 1 {
		return nil, fmt.Errorf("行数和列数必须大于 0: rows=%d, cols=%d", g.Rows, g.Cols)
	}
	if g.Row < 1 || g.Col < 1 {
		return nil, fmt.Errorf("目标行和目标列必须大于 0: row=%d, col=%d", g.Row, g.Col)
	}
	if g.Row > g.Rows || g.Col > g.Cols {
		return nil, fmt.Errorf("目标位置超出范围: row=%d > rows=%d 或 col=%d > cols=%d", g.Row, g.Rows, g.Col, g.Cols)
	}
	return g, nil
}

func (g Grid) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.Rows, g.Cols, g.Row, g.Col)
}

// Cell 目标格子在 bounds 中的区域
// 格子边界按比例取整，最后一行/列延伸到 bounds 边缘，相邻格子不重叠也不留缝
func (g Grid) Cell(bounds Region) Region {
	x0 := bounds.X + bounds.Width*(g.Col-1)/g.Cols
	x1 := bounds.X + bounds.Width*g.Col/g.Cols
	y0 := bounds.Y + bounds.Height*(g.Row-1)/g.Rows
	y1 := bounds.Y + bounds.Height*g.Row/g.Rows
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Cells 按行优先返回 bounds 中 rows×cols 的全部格子
func Cells(bounds Region, rows, cols int) []Region {
	if rows < 1 || cols < 1 {
		return nil
	}
	out := make([]Region, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			out = append(out, Grid{Rows: rows, Cols: cols, Row: r, Col: c}.Cell(bounds))
		}
	}
	return out
}

// GridRegion 全屏网格中目标格子的区域
func GridRegion(s string) (*Region, error) {
	g, err := ParseGrid(s)
	if err != nil {
		return nil, err
	}
	w, h := GetScreenSize()
	cell := g.Cell(Region{Width: w, Height: h})
	return &cell, nil
}
