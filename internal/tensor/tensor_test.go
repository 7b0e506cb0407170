package tensor

import (
	"testing"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFloat64(t *testing.T, data []float64, shape Shape) *RawTensor {
	t.Helper()
	r, err := FromSlice(data, shape)
	require.NoError(t, err)
	return r
}

func TestFromSlice(t *testing.T) {
	r, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Float32, r.DType())
	assert.Equal(t, Shape{2, 3}, r.Shape())
	assert.Equal(t, 6, r.NumElements())

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 3})
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)

	_, err = FromSlice([]float32{}, Shape{0, 3})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestFromSlice_CopiesInput(t *testing.T) {
	src := []int64{1, 2}
	r, err := FromSlice(src, Shape{2})
	require.NoError(t, err)
	src[0] = 99

	data, err := Data[int64](r)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, data)
}

func TestData_TypeMismatch(t *testing.T) {
	r := Scalar(int32(4))
	_, err := Data[float64](r)
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)

	data, err := Data[int32](r)
	require.NoError(t, err)
	assert.Equal(t, []int32{4}, data)
}

func TestLikeConstructors(t *testing.T) {
	x := mustFloat64(t, []float64{3, 4, 5, 6}, Shape{2, 2})

	ones := OnesLike(x)
	assert.True(t, ones.SameLayout(x))
	assert.Equal(t, []float64{1, 1, 1, 1}, ones.Float64s())

	zeros := ZerosLike(x)
	assert.Equal(t, []float64{0, 0, 0, 0}, zeros.Float64s())

	full := FullLike(Scalar(uint64(1)), 7)
	assert.Equal(t, Usize, full.DType())
	assert.Equal(t, []float64{7}, full.Float64s())
}

func TestCloneAndEqual(t *testing.T) {
	x := mustFloat64(t, []float64{1, 2}, Shape{2})
	y := x.Clone()
	assert.True(t, x.Equal(y))

	data, err := Data[float64](y)
	require.NoError(t, err)
	data[0] = 5
	assert.False(t, x.Equal(y))

	assert.False(t, x.Equal(Scalar(float64(1))))
	f32, err := Cast(x, Float32)
	require.NoError(t, err)
	assert.False(t, x.Equal(f32))
}

func TestElementwise_Broadcast(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(a, b *RawTensor) (*RawTensor, error)
		want  []float64
		shape Shape
	}{
		{"add", Add, []float64{11, 22, 13, 24}, Shape{2, 2}},
		{"sub", Sub, []float64{-9, -18, -7, -16}, Shape{2, 2}},
		{"mul", Mul, []float64{10, 40, 30, 80}, Shape{2, 2}},
		{"div", Div, []float64{0.1, 0.1, 0.3, 0.2}, Shape{2, 2}},
	}

	a := mustFloat64(t, []float64{1, 2, 3, 4}, Shape{2, 2})
	b := mustFloat64(t, []float64{10, 20}, Shape{2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn(a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, out.Shape())
			assert.InDeltaSlice(t, tt.want, out.Float64s(), 1e-12)
		})
	}
}

func TestElementwise_Errors(t *testing.T) {
	a := mustFloat64(t, []float64{1, 2, 3}, Shape{3})
	b := mustFloat64(t, []float64{1, 2}, Shape{2})
	_, err := Add(a, b)
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)

	_, err = Mul(a, Scalar(int32(2)))
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)

	_, err = Add(nil, a)
	assert.ErrorIs(t, err, errs.ErrUnset)

	ints, err := FromSlice([]int32{1, 0}, Shape{2})
	require.NoError(t, err)
	_, err = Div(ints, ints)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestMatMul(t *testing.T) {
	x := mustFloat64(t, []float64{0, 1, 2, 3, 4, 5}, Shape{3, 2})
	w := mustFloat64(t, []float64{0, 1, 2, 3}, Shape{2, 2})

	out, err := MatMul(x, w)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, out.Shape())
	assert.Equal(t, []float64{2, 3, 6, 11, 10, 19}, out.Float64s())

	_, err = MatMul(w, x)
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)

	_, err = MatMul(mustFloat64(t, []float64{1, 2}, Shape{2}), w)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestTranspose(t *testing.T) {
	x := mustFloat64(t, []float64{0, 1, 2, 3, 4, 5}, Shape{3, 2})
	out, err := Transpose(x)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, out.Shape())
	assert.Equal(t, []float64{0, 2, 4, 1, 3, 5}, out.Float64s())

	cube := mustFloat64(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, Shape{2, 2, 2})
	perm := []int{1, 2, 0}
	moved, err := Transpose(cube, perm...)
	require.NoError(t, err)
	back, err := Transpose(moved, InversePermutation(perm)...)
	require.NoError(t, err)
	assert.True(t, cube.Equal(back))

	_, err = Transpose(cube, 0, 0, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestReshape(t *testing.T) {
	x := mustFloat64(t, []float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	out, err := Reshape(x, Shape{3, 2})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, out.Shape())
	assert.Equal(t, x.Float64s(), out.Float64s())

	_, err = Reshape(x, Shape{4})
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)
}

func TestBroadcastToAndSumTo(t *testing.T) {
	x := mustFloat64(t, []float64{1, 2, 3}, Shape{3, 1})
	wide, err := BroadcastTo(x, Shape{2, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 1, 1, 2, 2, 3, 3}, wide.Float64s())

	back, err := SumTo(wide, Shape{3, 1})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 1}, back.Shape())
	assert.Equal(t, []float64{4, 8, 12}, back.Float64s())

	_, err = BroadcastTo(x, Shape{2, 2})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = SumTo(x, Shape{2})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestSum(t *testing.T) {
	x := mustFloat64(t, []float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	all, err := Sum(x, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Shape{}, all.Shape())
	assert.Equal(t, []float64{21}, all.Float64s())

	rows, err := Sum(x, []int{1}, false)
	require.NoError(t, err)
	assert.Equal(t, Shape{2}, rows.Shape())
	assert.Equal(t, []float64{6, 15}, rows.Float64s())

	cols, err := Sum(x, []int{-2}, true)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float64{5, 7, 9}, cols.Float64s())

	_, err = Sum(x, []int{2}, false)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	kept, err := KeepDimsShape(Shape{2, 3}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1}, kept)
}

func TestMathOps(t *testing.T) {
	x := mustFloat64(t, []float64{0, 1}, Shape{2})

	exp, err := Exp(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2.718281828}, exp.Float64s(), 1e-8)

	sin, err := Sin(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.841470985}, sin.Float64s(), 1e-8)

	neg, err := Neg(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -1}, neg.Float64s())

	scaled, err := MulScalar(x, 3)
	require.NoError(t, err)
	shifted, err := AddScalar(scaled, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, shifted.Float64s())

	_, err = Exp(Scalar(int64(2)))
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)

	_, err = Neg(Scalar(uint64(2)))
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestPow(t *testing.T) {
	x := mustFloat64(t, []float64{1, 2, 3}, Shape{3})
	cube, err := Pow(x, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 8, 27}, cube.Float64s())

	inv, err := Pow(x, -1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0.5, 1.0 / 3}, inv.Float64s(), 1e-12)

	ints, err := FromSlice([]int32{2, 3}, Shape{2})
	require.NoError(t, err)
	sq, err := Pow(ints, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 9}, sq.Float64s())

	one, err := Pow(ints, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, one.Float64s())

	_, err = Pow(ints, -1)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestCast(t *testing.T) {
	x := mustFloat64(t, []float64{1.7, -2.2}, Shape{2})
	ints, err := Cast(x, Int32)
	require.NoError(t, err)
	assert.Equal(t, Int32, ints.DType())
	data, err := Data[int32](ints)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, -2}, data)
}

func TestParseDataType(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Usize} {
		parsed, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}
	parsed, err := ParseDataType("")
	require.NoError(t, err)
	assert.Equal(t, Float64, parsed)

	_, err = ParseDataType("complex128")
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestString(t *testing.T) {
	x := mustFloat64(t, []float64{0, 1, 2, 3, 4, 5}, Shape{3, 2})
	assert.Equal(t, "[[0 1] [2 3] [4 5]]", x.String())
	assert.Equal(t, "float64(3,2) [[0 1] [2 3] [4 5]]", x.Describe())
	assert.Equal(t, "7", Scalar(int64(7)).String())

	var unset *RawTensor
	assert.Equal(t, "<unset>", unset.String())
}
