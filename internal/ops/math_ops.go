package ops

import (
	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

func (l *Library) registerMathOps() {
	l.register(binarySchema("add"), binaryHandler(tensor.Backend.Add))
	l.register(binarySchema("sub"), binaryHandler(tensor.Backend.Sub))
	l.register(binarySchema("mul"), binaryHandler(tensor.Backend.Mul))
	l.register(binarySchema("div"), binaryHandler(tensor.Backend.Div))

	l.register(dispatch.Schema{
		Name:         "mul",
		OverloadName: "Scalar",
		Arguments:    []dispatch.Argument{dispatch.Arg("self", dispatch.TypeTensor), dispatch.Arg("other", dispatch.TypeScalar)},
		Returns:      []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor)},
	}, handleMulScalar)

	l.register(unarySchema("neg"), unaryHandler(tensor.Backend.Neg))
	l.register(unarySchema("exp"), unaryHandler(tensor.Backend.Exp))
	l.register(unarySchema("sin"), unaryHandler(tensor.Backend.Sin))
	l.register(unarySchema("cos"), unaryHandler(tensor.Backend.Cos))
}

func binarySchema(name string) dispatch.Schema {
	return dispatch.Schema{
		Name:         name,
		OverloadName: "Tensor",
		Arguments:    []dispatch.Argument{dispatch.Arg("self", dispatch.TypeTensor), dispatch.Arg("other", dispatch.TypeTensor)},
		Returns:      []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor)},
	}
}

func unarySchema(name string) dispatch.Schema {
	return dispatch.Schema{
		Name:      name,
		Arguments: []dispatch.Argument{dispatch.Arg("self", dispatch.TypeTensor)},
		Returns:   []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor)},
	}
}

func binaryHandler(fn func(tensor.Backend, *tensor.RawTensor, *tensor.RawTensor) (*tensor.RawTensor, error)) Handler {
	return func(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
		in, err := rawArgs(args, 2)
		if err != nil {
			return nil, err
		}
		out, err := fn(ctx.Backend, in[0], in[1])
		if err != nil {
			return nil, err
		}
		return tensors(out), nil
	}
}

func unaryHandler(fn func(tensor.Backend, *tensor.RawTensor) *tensor.RawTensor) Handler {
	return func(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
		in, err := rawArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return tensors(fn(ctx.Backend, in[0])), nil
	}
}

func handleMulScalar(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return tensors(ctx.Backend.MulScalar(in[0], args[1].ToFloat())), nil
}
