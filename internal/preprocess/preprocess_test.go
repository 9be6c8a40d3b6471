package preprocess

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/CodeBotMzee/FYP/internal/catalog"
)

func testFrame(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(90, 120, 200, 0))
	return mat
}

func TestPrepare(t *testing.T) {
	desc, err := catalog.Get("dima806")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	mat := testFrame(t, 100, 160)
	defer mat.Close()

	input, err := Prepare(mat, desc)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	wantLen := 3 * desc.InputSize * desc.InputSize
	if len(input.Data) != wantLen {
		t.Fatalf("input has %d values, want %d", len(input.Data), wantLen)
	}

	wantShape := []int64{1, 3, int64(desc.InputSize), int64(desc.InputSize)}
	for i, dim := range wantShape {
		if input.Shape[i] != dim {
			t.Fatalf("shape = %v, want %v", input.Shape, wantShape)
		}
	}

	// Mean 0.5 / std 0.5 maps [0,255] pixels into [-1,1].
	for i, v := range input.Data {
		if v < -1.001 || v > 1.001 {
			t.Fatalf("value %f at %d outside normalized range", v, i)
		}
	}
}

func TestPrepareEmptyFrame(t *testing.T) {
	desc, _ := catalog.Get("dima806")
	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := Prepare(empty, desc); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestEnhanceNoFaceFallback(t *testing.T) {
	// A flat synthetic frame has no detectable face; the stage must
	// fall back to the full frame without error.
	e := NewFaceEnhancer("testdata/haarcascade_frontalface_default.xml")
	defer e.Close()

	mat := testFrame(t, 120, 120)
	defer mat.Close()

	out := e.Enhance(mat)
	defer out.Close()

	if out.Empty() {
		t.Fatal("fallback produced an empty frame")
	}
	if out.Rows() != mat.Rows() || out.Cols() != mat.Cols() {
		t.Errorf("fallback resized the frame: %dx%d vs %dx%d",
			out.Cols(), out.Rows(), mat.Cols(), mat.Rows())
	}

	desc, _ := catalog.Get("dima806")
	if _, err := Prepare(out, desc); err != nil {
		t.Errorf("fallback frame not preparable: %v", err)
	}
}

func TestEnhanceDisabledCascade(t *testing.T) {
	e := NewFaceEnhancer("no/such/cascade.xml")
	defer e.Close()

	mat := testFrame(t, 64, 64)
	defer mat.Close()

	out := e.Enhance(mat)
	defer out.Close()

	if out.Empty() {
		t.Fatal("disabled face stage produced an empty frame")
	}
}
