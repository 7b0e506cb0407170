package modelfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matmulYAML = `
name: matmul
inputs:
  - name: x
    shape: [3, 2]
    data: [0, 1, 2, 3, 4, 5]
outputs:
  - name: y
initializers:
  - name: w
    shape: [2, 2]
    data: [0, 1, 2, 3]
operators:
  - name: matmul
    type: MatMul
    inputs: [x, w]
    outputs: [y]
`

func TestDecodeAndBuild(t *testing.T) {
	def, err := Decode(strings.NewReader(matmulYAML))
	require.NoError(t, err)
	assert.Equal(t, "matmul", def.Name)
	require.Len(t, def.Operators, 1)
	assert.Equal(t, "MatMul", def.Operators[0].Type)

	m, err := def.Build(NewRegistry())
	require.NoError(t, err)
	require.NoError(t, m.Forward())
	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 6, 11, 10, 19}, y.Float64s())

	require.NoError(t, m.Backward("y"))
	require.NoError(t, m.Gradient().Forward())
	gw, err := m.Grad("w")
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 6, 9, 9}, gw.Float64s())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(matmulYAML), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, def.Inputs, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unknown field", "name: x\nlayers: []\n"},
		{"malformed", "inputs: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, errs.ErrInvalidParameter)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	exp := 2
	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{
			name: "unknown operator",
			def: Definition{
				Inputs:    []TensorSpec{{Name: "x"}},
				Operators: []OperatorSpec{{Name: "op", Type: "Conv2D", Inputs: []string{"x"}, Outputs: []string{"y"}}},
			},
			want: errs.ErrNotFound,
		},
		{
			name: "missing exponent",
			def: Definition{
				Inputs:    []TensorSpec{{Name: "x"}},
				Operators: []OperatorSpec{{Name: "op", Type: "Pow", Inputs: []string{"x"}, Outputs: []string{"y"}}},
			},
			want: errs.ErrInvalidParameter,
		},
		{
			name: "bad shape",
			def: Definition{
				Inputs: []TensorSpec{{Name: "x"}},
				Operators: []OperatorSpec{{Name: "op", Type: "Reshape", Inputs: []string{"x"}, Outputs: []string{"y"},
					Params: Params{Shape: []int{0, 2}}}},
			},
			want: errs.ErrInvalidParameter,
		},
		{
			name: "unknown dtype",
			def:  Definition{Inputs: []TensorSpec{{Name: "x", DType: "complex64", Data: []float64{1}}}},
			want: errs.ErrTypeMismatch,
		},
		{
			name: "data does not fit shape",
			def:  Definition{Inputs: []TensorSpec{{Name: "x", Shape: []int{2, 2}, Data: []float64{1, 2, 3}}}},
			want: errs.ErrSizeMismatch,
		},
		{
			name: "duplicate name",
			def: Definition{
				Inputs:    []TensorSpec{{Name: "x"}},
				Operators: []OperatorSpec{{Name: "x", Type: "Pow", Inputs: []string{"x"}, Outputs: []string{"y"}, Params: Params{Exponent: &exp}}},
			},
			want: errs.ErrDuplicate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Build(NewRegistry())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTensorSpec(t *testing.T) {
	scalar, err := TensorSpec{Name: "s", Data: []float64{4}}.Tensor()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, scalar.Shape())

	vector, err := TensorSpec{Name: "v", Data: []float64{1, 2, 3}}.Tensor()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3}, vector.Shape())

	ints, err := TensorSpec{Name: "i", DType: "int32", Shape: []int{2}, Data: []float64{1, 2}}.Tensor()
	require.NoError(t, err)
	assert.Equal(t, tensor.Int32, ints.DType())

	big, err := TensorSpec{Name: "b", DType: "int64", Data: []float64{1 << 53, -(1 << 53)}}.Tensor()
	require.NoError(t, err)
	assert.Equal(t, []float64{1 << 53, -(1 << 53)}, big.Float64s())

	unset, err := TensorSpec{Name: "u", Shape: []int{2}}.Tensor()
	require.NoError(t, err)
	assert.Nil(t, unset)
}

func TestTensorSpec_IntegerData(t *testing.T) {
	tests := []struct {
		name string
		spec TensorSpec
		want error
	}{
		{"fraction", TensorSpec{Name: "x", DType: "int32", Data: []float64{1, 2.5}}, errs.ErrInvalidParameter},
		{"beyond 2^53", TensorSpec{Name: "x", DType: "int64", Data: []float64{1<<53 + 2}}, errs.ErrInvalidParameter},
		{"negative size", TensorSpec{Name: "x", DType: "uint64", Data: []float64{-1}}, errs.ErrOverflow},
		{"int32 range", TensorSpec{Name: "x", DType: "int32", Data: []float64{1 << 31}}, errs.ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Tensor()
			assert.ErrorIs(t, err, tt.want)
		})
	}

	def, err := Decode(strings.NewReader("inputs:\n  - name: x\n    dtype: int64\n    data: [0.5]\n"))
	require.NoError(t, err)
	_, err = def.Build(NewRegistry())
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestEncode(t *testing.T) {
	def, err := Decode(strings.NewReader(matmulYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, def))
	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	supported := reg.SupportedOps()
	assert.Len(t, supported, 20)
	assert.Contains(t, supported, "MeanSquaredError")
	assert.IsIncreasing(t, supported)

	scalar := 2.5
	rule, err := reg.New("MulScalar", Params{Scalar: &scalar})
	require.NoError(t, err)
	assert.Equal(t, "MulScalar", rule.Name())

	_, err = reg.New("AddScalar", Params{})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	for _, name := range supported {
		_, ok := reg.Get(name)
		assert.True(t, ok, name)
	}
}
