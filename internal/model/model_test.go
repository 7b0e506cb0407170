package model

import (
	"testing"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addRule adds two inputs. Its backward hands the output gradient to every
// input unchanged, which is enough to exercise the model plumbing.
type addRule struct{}

func (addRule) Name() string { return "add" }

func (addRule) Forward(node graph.NodeID, m *Model) ([]graph.ValueID, error) {
	ins, outs, err := m.OperatorIO(node)
	if err != nil {
		return nil, err
	}
	a, err := m.Values().Payload(ins[0])
	if err != nil {
		return nil, err
	}
	b, err := m.Values().Payload(ins[1])
	if err != nil {
		return nil, err
	}
	y, err := tensor.Add(a, b)
	if err != nil {
		return nil, err
	}
	return outs, m.Values().SetPayload(outs[0], y)
}

func (addRule) Backward(node graph.NodeID, m *Model) ([]graph.ValueID, error) {
	ins, outs, err := m.OperatorIO(node)
	if err != nil {
		return nil, err
	}
	gy, ok, err := m.OutputGradient(outs[0])
	if err != nil || !ok {
		return nil, err
	}
	gv, err := m.Gradient().ValueOf(gy)
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		if err := m.Values().SetGradient(in, gv); err != nil {
			return nil, err
		}
	}
	return ins, nil
}

func vec(t *testing.T, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape{len(data)})
	require.NoError(t, err)
	return r
}

// sum builds y = (a + b) + c.
func sum(t *testing.T) *Model {
	t.Helper()
	m, err := New(
		[]ValueSpec{{Name: "a"}, {Name: "b"}},
		[]ValueSpec{{Name: "y"}},
		[]OperatorSpec{
			{Name: "add1", Inputs: []string{"a", "b"}, Outputs: []string{"t"}, Rule: addRule{}},
			{Name: "add2", Inputs: []string{"t", "c"}, Outputs: []string{"y"}, Rule: addRule{}},
		},
		[]ValueSpec{{Name: "c", Value: vec(t, 10, 20)}},
	)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	m := sum(t)
	// a, b, y, c, add1, t, add2
	assert.Equal(t, 7, m.Graph().Len())
	assert.Equal(t, 5, m.Values().Len())
	assert.Equal(t, 2, m.Operators().Len())
	assert.Len(t, m.Inputs(), 2)
	assert.Len(t, m.Outputs(), 1)

	add2, err := m.Graph().FindByName("add2")
	require.NoError(t, err)
	ins, outs, err := m.OperatorIO(add2)
	require.NoError(t, err)
	require.Len(t, ins, 2)
	require.Len(t, outs, 1)

	y, err := m.ValueByName("y")
	require.NoError(t, err)
	assert.Equal(t, y, outs[0])

	node, err := m.NodeOf(y)
	require.NoError(t, err)
	assert.Equal(t, m.Outputs()[0], node)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []ValueSpec
		outputs   []ValueSpec
		operators []OperatorSpec
		want      error
	}{
		{
			name:    "duplicate value",
			inputs:  []ValueSpec{{Name: "x"}},
			outputs: []ValueSpec{{Name: "x"}},
			want:    errs.ErrDuplicate,
		},
		{
			name:   "unknown input",
			inputs: []ValueSpec{{Name: "x"}},
			operators: []OperatorSpec{
				{Name: "op", Inputs: []string{"nope"}, Outputs: []string{"y"}, Rule: addRule{}},
			},
			want: errs.ErrNotFound,
		},
		{
			name:   "operator used as input",
			inputs: []ValueSpec{{Name: "x"}},
			operators: []OperatorSpec{
				{Name: "n1", Inputs: []string{"x", "x"}, Outputs: []string{"a"}, Rule: addRule{}},
				{Name: "n2", Inputs: []string{"n1", "x"}, Outputs: []string{"b"}, Rule: addRule{}},
			},
			want: errs.ErrNotFound,
		},
		{
			name:   "output overwrites input",
			inputs: []ValueSpec{{Name: "x"}},
			operators: []OperatorSpec{
				{Name: "op", Inputs: []string{"x", "x"}, Outputs: []string{"x"}, Rule: addRule{}},
			},
			want: errs.ErrDuplicate,
		},
		{
			name:   "missing rule",
			inputs: []ValueSpec{{Name: "x"}},
			operators: []OperatorSpec{
				{Name: "op", Inputs: []string{"x"}, Outputs: []string{"y"}},
			},
			want: errs.ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.inputs, tt.outputs, tt.operators, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestForward(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, m.SetInput("b", vec(t, 3, 4)))
	require.NoError(t, m.Forward())

	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 26}, y.Float64s())
}

func TestForward_UnsetInput(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	err := m.Forward()
	assert.ErrorIs(t, err, errs.ErrUnset)
}

func TestForward_Cycle(t *testing.T) {
	m, err := New(
		[]ValueSpec{{Name: "x", Value: vec(t, 1)}},
		[]ValueSpec{{Name: "y", Value: vec(t, 5)}},
		[]OperatorSpec{
			{Name: "loop", Inputs: []string{"x", "y"}, Outputs: []string{"y"}, Rule: addRule{}},
		},
		nil,
	)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Forward(), errs.ErrNotAcyclic)
	assert.ErrorIs(t, m.Backward("y"), errs.ErrNotAcyclic)

	y, err := m.Value("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, y.Float64s())
	assert.Nil(t, m.Gradient())
}

func TestBackward_SeedsTarget(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, m.SetInput("b", vec(t, 3, 4)))
	require.NoError(t, m.Forward())
	require.NoError(t, m.Backward("y"))

	gm := m.Gradient()
	require.NotNil(t, gm)
	assert.Equal(t, 1, gm.Depth())

	seed, err := gm.Graph().FindByName("grad(y)")
	require.NoError(t, err)
	for _, name := range []string{"y", "t", "a", "b", "c"} {
		node, err := m.GradientNode(name)
		require.NoError(t, err, name)
		assert.Equal(t, seed, node, name)
	}

	g, err := m.Grad("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, g.Float64s())

	// Gradient ids never coincide with primal ids.
	assert.GreaterOrEqual(t, seed, m.Graph().NextID())
}

func TestBackward_RequiresForward(t *testing.T) {
	m := sum(t)
	assert.ErrorIs(t, m.Backward("y"), errs.ErrUnset)
	assert.ErrorIs(t, m.Backward("missing"), errs.ErrNotFound)
}

func TestBackward_MergesPasses(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, m.SetInput("b", vec(t, 3, 4)))
	require.NoError(t, m.Forward())
	require.NoError(t, m.Backward("y"))
	first, err := m.GradientNode("a")
	require.NoError(t, err)
	require.NoError(t, m.Backward("y"))

	merged, err := m.GradientNode("a")
	require.NoError(t, err)
	assert.NotEqual(t, first, merged)
	op, err := m.Gradient().Graph().Node(merged)
	require.NoError(t, err)
	require.Len(t, op.Inputs(), 1)
	producer, err := m.Gradient().OperatorOf(op.Inputs()[0])
	require.NoError(t, err)
	assert.Equal(t, "Accumulate", producer.Rule().Name())

	require.NoError(t, m.Gradient().Forward())
	for _, name := range []string{"y", "t", "a", "b", "c"} {
		g, err := m.Grad(name)
		require.NoError(t, err, name)
		assert.Equal(t, []float64{2, 2}, g.Float64s(), name)
	}
}

func TestClearGradients(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, m.SetInput("b", vec(t, 3, 4)))
	require.NoError(t, m.Forward())
	require.NoError(t, m.Backward("y"))

	m.ClearGradients()
	assert.Nil(t, m.Gradient())
	_, err := m.GradientNode("a")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMirror(t *testing.T) {
	m := sum(t)
	require.NoError(t, m.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, m.SetInput("b", vec(t, 3, 4)))
	require.NoError(t, m.Forward())

	a, err := m.ValueByName("a")
	require.NoError(t, err)
	node, err := m.Mirror(a)
	require.NoError(t, err)
	again, err := m.Mirror(a)
	require.NoError(t, err)
	assert.Equal(t, node, again)

	gm := m.Gradient()
	mv, err := gm.ValueOf(node)
	require.NoError(t, err)
	p, err := gm.Values().Payload(mv)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, p.Float64s())

	// A later backward pass sees the new primal payload.
	require.NoError(t, m.SetInput("a", vec(t, 7, 8)))
	require.NoError(t, m.Forward())
	require.NoError(t, m.Backward("y"))
	p, err = gm.Values().Payload(mv)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, p.Float64s())
}

// twoInputAdd is a template with placeholders p and q and output r = p + q.
func twoInputAdd(t *testing.T) *Model {
	t.Helper()
	tmpl, err := New(
		[]ValueSpec{{Name: "p"}, {Name: "q"}},
		[]ValueSpec{{Name: "r"}},
		[]OperatorSpec{{Name: "plus", Inputs: []string{"p", "q"}, Outputs: []string{"r"}, Rule: addRule{}}},
		nil,
	)
	require.NoError(t, err)
	return tmpl
}

func TestInsertStructure(t *testing.T) {
	target := sum(t)
	require.NoError(t, target.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, target.SetInput("b", vec(t, 3, 4)))

	before := make(map[graph.NodeID]string)
	for _, id := range target.Graph().IDs() {
		n, _ := target.Graph().Node(id)
		before[id] = n.Name()
	}
	nodeMark := target.Graph().NextID()
	valueMark := target.Values().NextID()
	opMark := target.Operators().NextID()

	a, _ := target.Graph().FindByName("a")
	c, _ := target.Graph().FindByName("c")
	tmpl := twoInputAdd(t)
	outs, err := InsertStructure(target, tmpl, []graph.NodeID{a, c})
	require.NoError(t, err)
	require.Len(t, outs, 1)

	for id, name := range before {
		n, err := target.Graph().Node(id)
		require.NoError(t, err)
		assert.Equal(t, name, n.Name())
	}
	assert.GreaterOrEqual(t, outs[0], nodeMark)
	for _, id := range target.Values().IDs()[5:] {
		assert.GreaterOrEqual(t, id, valueMark)
	}
	assert.Equal(t, opMark+1, target.Operators().NextID())

	// Placeholders are gone and the operator reads the bindings.
	_, err = target.Graph().FindByName("p")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	plus, err := target.Graph().FindByName("plus")
	require.NoError(t, err)
	n, _ := target.Graph().Node(plus)
	assert.Equal(t, []graph.NodeID{a, c}, n.Inputs())
	aNode, _ := target.Graph().Node(a)
	assert.Contains(t, aNode.Outputs(), plus)

	require.NoError(t, target.Forward())
	rv, err := target.ValueOf(outs[0])
	require.NoError(t, err)
	r, err := target.Values().Payload(rv)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22}, r.Float64s())

	assert.Equal(t, 0, tmpl.Graph().Len())
	assert.Empty(t, tmpl.Inputs())
}

func TestInsertStructure_SameBindingTwice(t *testing.T) {
	target := sum(t)
	require.NoError(t, target.SetInput("a", vec(t, 1, 2)))
	require.NoError(t, target.SetInput("b", vec(t, 3, 4)))
	a, _ := target.Graph().FindByName("a")

	outs, err := InsertStructure(target, twoInputAdd(t), []graph.NodeID{a, a})
	require.NoError(t, err)
	require.NoError(t, target.Forward())
	rv, _ := target.ValueOf(outs[0])
	r, err := target.Values().Payload(rv)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, r.Float64s())
}

func TestInsertStructure_PlaceholderOutput(t *testing.T) {
	target := sum(t)
	tmpl, err := New([]ValueSpec{{Name: "p"}}, nil, nil, nil)
	require.NoError(t, err)
	tmpl.outputs = tmpl.Inputs()

	c, _ := target.Graph().FindByName("c")
	outs, err := InsertStructure(target, tmpl, []graph.NodeID{c})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{c}, outs)
}

func TestInsertStructure_ArityMismatch(t *testing.T) {
	target := sum(t)
	a, _ := target.Graph().FindByName("a")
	nodes, mark := target.Graph().Len(), target.Graph().NextID()

	_, err := InsertStructure(target, twoInputAdd(t), []graph.NodeID{a})
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)
	_, err = InsertStructure(target, twoInputAdd(t), []graph.NodeID{a, a, a})
	assert.ErrorIs(t, err, errs.ErrSizeMismatch)
	_, err = InsertStructure(target, twoInputAdd(t), []graph.NodeID{a, 999})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	op, err := target.Graph().FindByName("add2")
	require.NoError(t, err)
	_, err = InsertStructure(target, twoInputAdd(t), []graph.NodeID{a, op})
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)

	assert.Equal(t, nodes, target.Graph().Len())
	assert.Equal(t, mark, target.Graph().NextID())
}

func TestInsertStructure_TemplateAboveTarget(t *testing.T) {
	target, err := New([]ValueSpec{{Name: "x", Value: vec(t, 1)}}, nil, nil, nil)
	require.NoError(t, err)
	tmpl := twoInputAdd(t)
	// Push the template watermarks past the target's.
	tmpl.Graph().Reserve(50)

	x, _ := target.Graph().FindByName("x")
	outs, err := InsertStructure(target, tmpl, []graph.NodeID{x, x})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, outs[0], graph.NodeID(50))
	assert.Greater(t, target.Graph().NextID(), outs[0])
}
