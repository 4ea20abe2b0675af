package main

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
	"github.com/born-ml/vmap/internal/vmap"
	"github.com/spf13/cobra"
)

type runOptions struct {
	batch  int
	shape  []int
	ints   []int
	floats []float64
	bools  []bool
	outDim int
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run OPERATOR",
		Short: "Run an operator under vmap over arange inputs",
		Long: "Run vmaps OPERATOR over inputs of shape [batch, shape...] filled with 0, 1, 2, ...\n" +
			"Tensor arguments are mapped along dim 0; --int, --float and --bool supply the\n" +
			"remaining arguments in schema order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(activeCfg)
			if err != nil {
				return err
			}
			results, err := e.run(args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, r := range results {
				if !r.IsDefinedTensor() {
					_, _ = fmt.Fprintf(out, "result %d: undefined\n", i)
					continue
				}
				raw, err := r.ToRawTensor()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "result %d: %s %v\n", i, raw, raw.Float64s())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.batch, "batch", 2, "Size of the mapped dimension")
	cmd.Flags().IntSliceVar(&opts.shape, "shape", []int{3}, "Per-example shape of tensor arguments")
	cmd.Flags().IntSliceVar(&opts.ints, "int", nil, "Int arguments in schema order")
	cmd.Flags().Float64SliceVar(&opts.floats, "float", nil, "Float and scalar arguments in schema order")
	cmd.Flags().BoolSliceVar(&opts.bools, "bool", nil, "Bool arguments in schema order")
	cmd.Flags().IntVar(&opts.outDim, "out-dim", 0, "Position of the mapped dimension in the results")

	return cmd
}

// run builds the arguments of name from opts and calls it under vmap.
func (e *engine) run(name string, opts runOptions) ([]dispatch.IValue, error) {
	d := e.lib.Dispatcher()
	op, ok := d.Find(name)
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", name)
	}
	if opts.batch < 0 {
		return nil, fmt.Errorf("batch must not be negative, got %d", opts.batch)
	}

	shape := append(tensor.Shape{opts.batch}, opts.shape...)
	schema := op.Schema()
	values := make([]dispatch.IValue, 0, schema.Arity())
	inDims := make([]vmap.InDim, 0, schema.Arity())
	ints, floats, bools := opts.ints, opts.floats, opts.bools

	for _, arg := range schema.Arguments {
		var v dispatch.IValue
		inDim := vmap.NoDim
		switch arg.Type {
		case dispatch.TypeTensor:
			raw, err := tensor.Arange(shape, tensor.Float32, tensor.CPU)
			if err != nil {
				return nil, err
			}
			v, inDim = dispatch.TensorValue(raw), vmap.Dim(0)
		case dispatch.TypeInt:
			if len(ints) == 0 {
				return nil, fmt.Errorf("%s: missing --int for argument %q", name, arg.Name)
			}
			v, ints = dispatch.IntValue(int64(ints[0])), ints[1:]
		case dispatch.TypeFloat, dispatch.TypeScalar:
			if len(floats) == 0 {
				return nil, fmt.Errorf("%s: missing --float for argument %q", name, arg.Name)
			}
			v, floats = dispatch.FloatValue(floats[0]), floats[1:]
		case dispatch.TypeBool:
			if len(bools) == 0 {
				return nil, fmt.Errorf("%s: missing --bool for argument %q", name, arg.Name)
			}
			v, bools = dispatch.BoolValue(bools[0]), bools[1:]
		default:
			return nil, fmt.Errorf("%s: argument %q of type %s cannot be built from flags", name, arg.Name, arg.Type)
		}
		values = append(values, v)
		inDims = append(inDims, inDim)
	}

	call := func(args []dispatch.IValue) ([]dispatch.IValue, error) {
		return d.Call(name, args...)
	}
	return e.ip.Vmap(call, inDims, opts.outDim)(values)
}
