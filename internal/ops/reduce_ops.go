package ops

import "github.com/born-ml/vmap/internal/dispatch"

func (l *Library) registerReduceOps() {
	dimArgs := []dispatch.Argument{
		dispatch.Arg("self", dispatch.TypeTensor),
		dispatch.Arg("dim", dispatch.TypeInt),
		dispatch.Arg("keepdim", dispatch.TypeBool),
	}

	l.register(dispatch.Schema{
		Name:         "sum",
		OverloadName: "dim",
		Arguments:    dimArgs,
		Returns:      []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor)},
	}, handleSumDim)

	l.register(dispatch.Schema{
		Name:         "max",
		OverloadName: "dim",
		Arguments:    dimArgs,
		Returns: []dispatch.Argument{
			{Name: "values", Type: dispatch.TypeTensor},
			{Name: "indices", Type: dispatch.TypeTensor},
		},
	}, handleMaxDim)
}

func handleSumDim(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	out, err := ctx.Backend.SumDim(in[0], int(args[1].ToInt()), args[2].ToBool())
	if err != nil {
		return nil, err
	}
	return tensors(out), nil
}

func handleMaxDim(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	values, indices, err := ctx.Backend.MaxDim(in[0], int(args[1].ToInt()), args[2].ToBool())
	if err != nil {
		return nil, err
	}
	return tensors(values, indices), nil
}
