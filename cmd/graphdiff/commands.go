package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/modelfile"
	"github.com/born-ml/graphdiff/internal/optim"
	"github.com/born-ml/graphdiff/internal/tensor"
	"github.com/spf13/cobra"
)

type options struct {
	file    string
	verbose bool
	output  string
	order   int

	params    []string
	epochs    int
	lr        float64
	momentum  float64
	optimizer string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "graphdiff",
		Short:         "Evaluate and differentiate computation graphs",
		Long:          "graphdiff loads a YAML model, evaluates it and builds derivative graphs of any order.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log graph construction at debug level")

	forward := &cobra.Command{
		Use:   "forward",
		Short: "Evaluate the model and print every declared output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runForward(cmd.OutOrStdout(), m)
		},
	}
	forward.Flags().StringVarP(&opts.file, "file", "f", "", "model file (YAML)")
	_ = forward.MarkFlagRequired("file")

	backward := &cobra.Command{
		Use:   "backward",
		Short: "Print derivatives of an output with respect to every input",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.order < 1 {
				return fmt.Errorf("order %d: must be at least 1: %w", opts.order, errs.ErrInvalidParameter)
			}
			m, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runBackward(cmd.OutOrStdout(), m, opts.output, opts.order)
		},
	}
	backward.Flags().StringVarP(&opts.file, "file", "f", "", "model file (YAML)")
	backward.Flags().StringVarP(&opts.output, "output", "o", "", "value to differentiate (default: first declared output)")
	backward.Flags().IntVarP(&opts.order, "order", "n", 1, "derivative order")
	_ = backward.MarkFlagRequired("file")

	train := &cobra.Command{
		Use:   "train",
		Short: "Minimize an output by gradient descent on model inputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.epochs < 1 {
				return fmt.Errorf("epochs %d: must be at least 1: %w", opts.epochs, errs.ErrInvalidParameter)
			}
			m, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return opts.runTrain(cmd.OutOrStdout(), m)
		},
	}
	train.Flags().StringVarP(&opts.file, "file", "f", "", "model file (YAML)")
	train.Flags().StringVarP(&opts.output, "output", "o", "", "value to minimize (default: first declared output)")
	train.Flags().StringSliceVarP(&opts.params, "params", "p", nil, "values to update (default: every input)")
	train.Flags().IntVarP(&opts.epochs, "epochs", "e", 100, "number of gradient steps")
	train.Flags().Float64Var(&opts.lr, "lr", 0.01, "learning rate")
	train.Flags().Float64Var(&opts.momentum, "momentum", 0, "SGD momentum")
	train.Flags().StringVar(&opts.optimizer, "optimizer", "sgd", "sgd or adam")
	_ = train.MarkFlagRequired("file")

	opsCmd := &cobra.Command{
		Use:   "ops",
		Short: "List supported operator types",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range modelfile.NewRegistry().SupportedOps() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphdiff %s\n", version)
		},
	}

	root.AddCommand(forward, backward, train, opsCmd, versionCmd)
	return root
}

func (o *options) load(cmd *cobra.Command) (*model.Model, error) {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	def, err := modelfile.Load(o.file)
	if err != nil {
		return nil, err
	}
	m, err := def.Build(modelfile.NewRegistry(), model.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded", "file", o.file, "model", m.ID(), "nodes", m.Graph().Len())
	return m, nil
}

func runForward(w io.Writer, m *model.Model) error {
	if err := m.Forward(); err != nil {
		return err
	}
	for _, id := range m.Outputs() {
		n, err := m.Graph().Node(id)
		if err != nil {
			return err
		}
		v, err := m.Value(n.Name())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s\n", n.Name(), v.Describe())
	}
	return nil
}

func (o *options) runTrain(w io.Writer, m *model.Model) error {
	output, err := outputName(m, o.output)
	if err != nil {
		return err
	}
	params := o.params
	if len(params) == 0 {
		for _, id := range m.Inputs() {
			n, err := m.Graph().Node(id)
			if err != nil {
				return err
			}
			params = append(params, n.Name())
		}
	}

	var opt optim.Optimizer
	switch o.optimizer {
	case "sgd":
		opt, err = optim.NewSGD(m, params, optim.SGDConfig{LR: o.lr, Momentum: o.momentum})
	case "adam":
		opt, err = optim.NewAdam(m, params, optim.AdamConfig{LR: o.lr})
	default:
		err = fmt.Errorf("optimizer %q: %w", o.optimizer, errs.ErrInvalidParameter)
	}
	if err != nil {
		return err
	}

	for epoch := 1; epoch <= o.epochs; epoch++ {
		opt.ZeroGrad()
		if err := m.Forward(); err != nil {
			return err
		}
		if err := m.Backward(output); err != nil {
			return err
		}
		if err := m.Gradient().Forward(); err != nil {
			return err
		}
		if err := opt.Step(); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		m.Logger().Debug("step", "epoch", epoch, "lr", opt.GetLR())
	}
	opt.ZeroGrad()

	for _, name := range params {
		v, err := m.Value(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s\n", name, v.Describe())
	}
	return runForward(w, m)
}

// outputName returns name, or the first declared output when name is empty.
func outputName(m *model.Model, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	outs := m.Outputs()
	if len(outs) == 0 {
		return "", fmt.Errorf("model declares no outputs: %w", errs.ErrNotFound)
	}
	n, err := m.Graph().Node(outs[0])
	if err != nil {
		return "", err
	}
	return n.Name(), nil
}

func runBackward(w io.Writer, m *model.Model, output string, order int) error {
	output, err := outputName(m, output)
	if err != nil {
		return err
	}
	if err := m.Forward(); err != nil {
		return err
	}
	for _, id := range m.Inputs() {
		n, err := m.Graph().Node(id)
		if err != nil {
			return err
		}
		d, err := derivative(m, output, n.Name(), order)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s\n", label(output, n.Name(), order), d.Describe())
	}
	return nil
}

// derivative builds the order-th derivative of output with respect to
// input by differentiating each gradient model in turn. When input does not
// reach the target at some order, the derivative is zero.
func derivative(m *model.Model, output, input string, order int) (*tensor.RawTensor, error) {
	m.ClearGradients()
	target, err := m.Graph().FindByName(output)
	if err != nil {
		return nil, err
	}
	level := m
	for k := 1; ; k++ {
		if err := level.BackwardNode(target); err != nil {
			return nil, err
		}
		if err := level.Gradient().Forward(); err != nil {
			return nil, err
		}
		var g *tensor.RawTensor
		if k == order {
			g, err = level.Grad(input)
		} else {
			target, err = level.GradientNode(input)
		}
		if errors.Is(err, errs.ErrNotFound) {
			return zerosLike(m, input)
		}
		if err != nil {
			return nil, err
		}
		if k == order {
			return g, nil
		}
		level = level.Gradient()
	}
}

func zerosLike(m *model.Model, name string) (*tensor.RawTensor, error) {
	v, err := m.Value(name)
	if err != nil {
		return nil, err
	}
	return tensor.ZerosLike(v), nil
}

func label(output, input string, order int) string {
	if order == 1 {
		return fmt.Sprintf("d%s/d%s", output, input)
	}
	return fmt.Sprintf("d^%d %s/d%s^%d", order, output, input, order)
}
