package screen

import (
	"testing"
)

func TestParseGrid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Grid
		wantErr bool
	}{
		{name: "2x2 第1格", input: "2.2.1.1", want: &Grid{Rows: 2, Cols: 2, Row: 1, Col: 1}},
		{name: "3x3 中心", input: "3.3.2.2", want: &Grid{Rows: 3, Cols: 3, Row: 2, Col: 2}},
		{name: "空字符串", input: "", wantErr: true},
		{name: "段数不足", input: "2.2.1", wantErr: true},
		{name: "非数字", input: "2.x.1.1", wantErr: true},
		{name: "行越界", input: "2.2.3.1", wantErr: true},
		{name: "行为 0", input: "2.2.0.1", wantErr: true},
		{name: "网格为 0", input: "0.2.1.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrid(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGrid(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && *got != *tt.want {
				t.Errorf("ParseGrid(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGridString(t *testing.T) {
	g := Grid{Rows: 3, Cols: 4, Row: 2, Col: 1}
	if got := g.String(); got != "3.4.2.1" {
		t.Errorf("String() = %q", got)
	}
	back, err := ParseGrid(g.String())
	if err != nil || *back != g {
		t.Errorf("往返失败: %+v, %v", back, err)
	}
}

func TestGridCell(t *testing.T) {
	bounds := Region{X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		grid Grid
		want Region
	}{
		{Grid{Rows: 1, Cols: 1, Row: 1, Col: 1}, bounds},
		{Grid{Rows: 2, Cols: 2, Row: 1, Col: 1}, Region{X: 10, Y: 20, Width: 50, Height: 25}},
		{Grid{Rows: 2, Cols: 2, Row: 2, Col: 2}, Region{X: 60, Y: 45, Width: 50, Height: 25}},
		{Grid{Rows: 1, Cols: 3, Row: 1, Col: 3}, Region{X: 76, Y: 20, Width: 34, Height: 50}},
	}
	for _, tt := range tests {
		if got := tt.grid.Cell(bounds); got != tt.want {
			t.Errorf("%s.Cell() = %+v, want %+v", tt.grid, got, tt.want)
		}
	}
}

func TestCellsCoverBounds(t *testing.T) {
	bounds := Region{Width: 101, Height: 37}
	cells := Cells(bounds, 3, 4)
	if len(cells) != 12 {
		t.Fatalf("格子数 = %d, want 12", len(cells))
	}

	area := 0
	for _, c := range cells {
		area += c.Width * c.Height
	}
	if area != bounds.Width*bounds.Height {
		t.Errorf("格子面积之和 = %d, want %d", area, bounds.Width*bounds.Height)
	}

	last := cells[len(cells)-1]
	if last.X+last.Width != bounds.Width || last.Y+last.Height != bounds.Height {
		t.Errorf("最后一格未到达边缘: %+v", last)
	}

	if Cells(bounds, 0, 2) != nil {
		t.Error("无效网格应返回 nil")
	}
}
