package ops

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

// registerMutatingOps adds operators that write to one of their arguments.
func (l *Library) registerMutatingOps() {
	inPlace := func(name string) dispatch.Schema {
		return dispatch.Schema{
			Name:         name,
			OverloadName: "Tensor",
			Arguments: []dispatch.Argument{
				dispatch.Arg("self", dispatch.TypeTensor).Writes("a"),
				dispatch.Arg("other", dispatch.TypeTensor),
			},
			Returns: []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor).Writes("a")},
		}
	}
	l.register(inPlace("add_"), inPlaceHandler(tensor.Backend.AddInPlace))
	l.register(inPlace("mul_"), inPlaceHandler(tensor.Backend.MulInPlace))

	l.register(dispatch.Schema{
		Name:         "add",
		OverloadName: "out",
		Arguments: []dispatch.Argument{
			dispatch.Arg("self", dispatch.TypeTensor),
			dispatch.Arg("other", dispatch.TypeTensor),
			dispatch.Arg("out", dispatch.TypeTensor).Writes("a"),
		},
		Returns: []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor).Writes("a")},
	}, handleAddOut)
}

func inPlaceHandler(fn func(tensor.Backend, *tensor.RawTensor, *tensor.RawTensor) error) Handler {
	return func(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
		in, err := rawArgs(args, 2)
		if err != nil {
			return nil, err
		}
		if err := fn(ctx.Backend, in[0], in[1]); err != nil {
			return nil, err
		}
		return args[:1], nil
	}
}

func handleAddOut(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 3)
	if err != nil {
		return nil, err
	}
	sum, err := ctx.Backend.Add(in[0], in[1])
	if err != nil {
		return nil, err
	}
	if err := in[2].CopyFrom(sum); err != nil {
		return nil, fmt.Errorf("out: %w", err)
	}
	return args[2:3], nil
}
