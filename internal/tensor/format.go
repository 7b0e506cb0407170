package tensor

import (
	"strconv"
	"strings"
)

// String renders the tensor as nested brackets, e.g. [[1 2] [3 4]].
func (r *RawTensor) String() string {
	if r == nil {
		return "<unset>"
	}
	values := r.Float64s()
	var sb strings.Builder
	formatNested(&sb, values, r.shape, r.dtype)
	return sb.String()
}

// Describe renders the dtype and shape followed by the values.
func (r *RawTensor) Describe() string {
	if r == nil {
		return "<unset>"
	}
	return r.dtype.String() + r.shapeString() + " " + r.String()
}

func (r *RawTensor) shapeString() string {
	parts := make([]string, len(r.shape))
	for i, d := range r.shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func formatNested(sb *strings.Builder, values []float64, shape Shape, dtype DataType) {
	if len(shape) == 0 {
		sb.WriteString(formatElement(values[0], dtype))
		return
	}
	stride := len(values) / shape[0]
	sb.WriteByte('[')
	for i := 0; i < shape[0]; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		formatNested(sb, values[i*stride:(i+1)*stride], shape[1:], dtype)
	}
	sb.WriteByte(']')
}

func formatElement(v float64, dtype DataType) string {
	if dtype.IsFloat() {
		bits := 64
		if dtype == Float32 {
			bits = 32
		}
		return strconv.FormatFloat(v, 'g', -1, bits)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}
