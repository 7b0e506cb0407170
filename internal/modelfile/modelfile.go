// Package modelfile loads model definitions from YAML.
//
// A definition lists named inputs, outputs, initializers and operators.
// Operator types are resolved through a Registry; see NewRegistry for the
// built-in set.
//
//	name: square
//	inputs:
//	  - name: x
//	    dtype: float64
//	    shape: [3]
//	    data: [1, 2, 3]
//	outputs:
//	  - name: y
//	operators:
//	  - name: pow
//	    type: Pow
//	    inputs: [x]
//	    outputs: [y]
//	    params:
//	      exponent: 2
package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
	"gopkg.in/yaml.v3"
)

// Definition is the decoded form of a model file.
type Definition struct {
	Name         string         `yaml:"name"`
	Inputs       []TensorSpec   `yaml:"inputs"`
	Outputs      []TensorSpec   `yaml:"outputs"`
	Initializers []TensorSpec   `yaml:"initializers"`
	Operators    []OperatorSpec `yaml:"operators"`
}

// TensorSpec declares a named value. Data is given in row-major order and
// converted to DType. Without Shape, a single element is a scalar and
// several elements form a vector. Without Data the value starts unset.
// For integer dtypes every element must be a whole number no larger in
// magnitude than 2^53, the range a YAML number decodes into exactly.
type TensorSpec struct {
	Name  string    `yaml:"name"`
	DType string    `yaml:"dtype,omitempty"`
	Shape []int     `yaml:"shape,omitempty"`
	Data  []float64 `yaml:"data,omitempty"`
}

// OperatorSpec declares an operator instance.
type OperatorSpec struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`
	Params  Params   `yaml:"params,omitempty"`
}

// Params holds the constant parameters of parametric rules.
type Params struct {
	Shape    []int    `yaml:"shape,omitempty"`
	Axes     []int    `yaml:"axes,omitempty"`
	KeepDims bool     `yaml:"keep_dims,omitempty"`
	Exponent *int     `yaml:"exponent,omitempty"`
	Scalar   *float64 `yaml:"scalar,omitempty"`
}

// Load reads and decodes the model file at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	def, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Decode parses a YAML model definition. Unknown fields are rejected.
func Decode(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model file: %w", errs.ErrInvalidParameter)
		}
		return nil, fmt.Errorf("unmarshaling YAML: %w: %w", errs.ErrInvalidParameter, err)
	}
	return &def, nil
}

// Encode writes def as YAML.
func Encode(w io.Writer, def *Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// Tensor converts the spec into a tensor, or nil when it carries no data.
func (s TensorSpec) Tensor() (*tensor.RawTensor, error) {
	if len(s.Data) == 0 {
		return nil, nil
	}
	dtype, err := tensor.ParseDataType(s.DType)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", s.Name, err)
	}
	if !dtype.IsFloat() {
		if err := checkIntegral(s.Data, dtype); err != nil {
			return nil, fmt.Errorf("value %q: %w", s.Name, err)
		}
	}
	shape := tensor.Shape(s.Shape)
	if shape == nil && len(s.Data) > 1 {
		shape = tensor.Shape{len(s.Data)}
	}
	if shape == nil {
		shape = tensor.Shape{}
	}
	t, err := tensor.FromSlice(s.Data, shape)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", s.Name, err)
	}
	if dtype == tensor.Float64 {
		return t, nil
	}
	return tensor.Cast(t, dtype)
}

// Build creates a model from def, resolving operator types through reg.
func (def *Definition) Build(reg *Registry, opts ...model.Option) (*model.Model, error) {
	inputs, err := valueSpecs(def.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := valueSpecs(def.Outputs)
	if err != nil {
		return nil, err
	}
	initializers, err := valueSpecs(def.Initializers)
	if err != nil {
		return nil, err
	}
	operators := make([]model.OperatorSpec, len(def.Operators))
	for i, op := range def.Operators {
		rule, err := reg.New(op.Type, op.Params)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", op.Name, err)
		}
		operators[i] = model.OperatorSpec{
			Name:    op.Name,
			Inputs:  op.Inputs,
			Outputs: op.Outputs,
			Rule:    rule,
		}
	}
	m, err := model.New(inputs, outputs, operators, initializers, opts...)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", def.Name, err)
	}
	return m, nil
}

// maxExactInteger is the largest magnitude below which every integer has an
// exact float64 representation.
const maxExactInteger = 1 << 53

func checkIntegral(data []float64, dtype tensor.DataType) error {
	for i, v := range data {
		switch {
		case math.Trunc(v) != v:
			return fmt.Errorf("element %d: %v is not a whole number for %s: %w",
				i, v, dtype, errs.ErrInvalidParameter)
		case math.Abs(v) > maxExactInteger:
			return fmt.Errorf("element %d: %v is not exactly representable: %w",
				i, v, errs.ErrInvalidParameter)
		case dtype == tensor.Usize && v < 0:
			return fmt.Errorf("element %d: %v is negative for %s: %w", i, v, dtype, errs.ErrOverflow)
		case dtype == tensor.Int32 && (v < math.MinInt32 || v > math.MaxInt32):
			return fmt.Errorf("element %d: %v does not fit %s: %w", i, v, dtype, errs.ErrOverflow)
		}
	}
	return nil
}

func valueSpecs(specs []TensorSpec) ([]model.ValueSpec, error) {
	out := make([]model.ValueSpec, len(specs))
	for i, s := range specs {
		t, err := s.Tensor()
		if err != nil {
			return nil, err
		}
		out[i] = model.ValueSpec{Name: s.Name, Value: t}
	}
	return out, nil
}
