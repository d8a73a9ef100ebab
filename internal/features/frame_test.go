package features

import "testing"

func TestCoerceParsesNumericStrings(t *testing.T) {
	f := NewFrame(3)
	f.AddString("codes", []string{"1.5", "", "3"})
	f.Coerce()

	col, ok := f.Column("codes")
	if !ok {
		t.Fatal("column not numeric after coerce")
	}
	want := []float64{1.5, 0, 3}
	for i := range want {
		if col[i] != want[i] {
			t.Fatalf("codes[%d] = %v, want %v", i, col[i], want[i])
		}
	}
}

func TestCoerceEncodesCategoricals(t *testing.T) {
	f := NewFrame(4)
	f.AddString("category", []string{"DAIRY", "MEATS", "DAIRY", "PRODUCE"})
	f.Coerce()

	col, ok := f.Column("category")
	if !ok {
		t.Fatal("column not numeric after coerce")
	}
	// First-appearance encoding: DAIRY=0, MEATS=1, PRODUCE=2.
	want := []float64{0, 1, 0, 2}
	for i := range want {
		if col[i] != want[i] {
			t.Fatalf("category[%d] = %v, want %v", i, col[i], want[i])
		}
	}
}

func TestMatrixRejectsUncoercedColumns(t *testing.T) {
	f := NewFrame(1)
	f.AddString("raw", []string{"x"})
	if _, err := f.Matrix(); err == nil {
		t.Fatal("expected error for uncoerced column")
	}
}

func TestSelectDropsExtras(t *testing.T) {
	f := NewFrame(2)
	f.AddNumeric("keep", []float64{1, 2})
	f.AddNumeric("drop", []float64{9, 9})
	f.Select([]string{"keep", "absent"})

	names := f.Names()
	if len(names) != 2 || names[0] != "keep" || names[1] != "absent" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, ok := f.Column("drop"); ok {
		t.Fatal("extra column should have been dropped")
	}
	if col, _ := f.Column("absent"); col[0] != 0 || col[1] != 0 {
		t.Fatal("absent column should be zero-filled")
	}
}

func TestTruncateAndPad(t *testing.T) {
	f := NewFrame(1)
	f.AddNumeric("a", []float64{1})
	f.AddNumeric("b", []float64{2})
	f.Truncate(1)
	if f.Width() != 1 {
		t.Fatalf("expected width 1, got %d", f.Width())
	}
	f.PadZeros(3)
	if f.Width() != 3 {
		t.Fatalf("expected width 3, got %d", f.Width())
	}
	matrix, err := f.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if matrix[0][0] != 1 || matrix[0][1] != 0 || matrix[0][2] != 0 {
		t.Fatalf("unexpected row %v", matrix[0])
	}
}
