package main

import (
	"bytes"
	"testing"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestForwardCommand(t *testing.T) {
	out, err := run(t, "forward", "-f", "testdata/matmul.yaml")
	require.NoError(t, err)
	assert.Equal(t, "y = float64(3,2) [[2 3] [6 11] [10 19]]\n", out)
}

func TestBackwardCommand(t *testing.T) {
	out, err := run(t, "backward", "-f", "testdata/matmul.yaml")
	require.NoError(t, err)
	assert.Equal(t,
		"dy/dx = float64(3,2) [[1 5] [1 5] [1 5]]\n"+
			"dy/dw = float64(2,2) [[6 6] [9 9]]\n",
		out)
}

func TestBackwardCommand_HigherOrder(t *testing.T) {
	out, err := run(t, "backward", "-f", "testdata/cubic.yaml", "--order", "2")
	require.NoError(t, err)
	assert.Equal(t, "d^2 y/dx^2 = float64(3) [6 12 18]\n", out)

	out, err = run(t, "backward", "-f", "testdata/cubic.yaml", "-n", "4")
	require.NoError(t, err)
	assert.Equal(t, "d^4 y/dx^4 = float64(3) [0 0 0]\n", out)
}

func TestBackwardCommand_Errors(t *testing.T) {
	_, err := run(t, "backward", "-f", "testdata/cubic.yaml", "--order", "0")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = run(t, "backward", "-f", "testdata/cubic.yaml", "--output", "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = run(t, "backward")
	assert.Error(t, err)
}

func TestTrainCommand(t *testing.T) {
	// x -= 0.25 * 2x halves x every step.
	out, err := run(t, "train", "-f", "testdata/quadratic.yaml", "--lr", "0.25", "-e", "1")
	require.NoError(t, err)
	assert.Equal(t, "x = float64(2) [0.5 1]\nloss = float64(2) [0.25 1]\n", out)

	out, err = run(t, "train", "-f", "testdata/quadratic.yaml", "--lr", "0.25", "-e", "2", "-p", "x", "-o", "loss")
	require.NoError(t, err)
	assert.Equal(t, "x = float64(2) [0.25 0.5]\nloss = float64(2) [0.0625 0.25]\n", out)
}

func TestTrainCommand_Errors(t *testing.T) {
	_, err := run(t, "train", "-f", "testdata/quadratic.yaml", "-e", "0")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = run(t, "train", "-f", "testdata/quadratic.yaml", "--optimizer", "rmsprop")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = run(t, "train", "-f", "testdata/quadratic.yaml", "-p", "z")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOpsAndVersion(t *testing.T) {
	out, err := run(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "MatMul\n")
	assert.Contains(t, out, "Pow\n")

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "graphdiff "+version+"\n", out)
}
