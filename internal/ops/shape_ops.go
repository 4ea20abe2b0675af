package ops

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

// registerShapeOps adds view and shape manipulation operators.
func (l *Library) registerShapeOps() {
	l.register(dispatch.Schema{
		Name:         "transpose",
		OverloadName: "int",
		Arguments: []dispatch.Argument{
			dispatch.Arg("self", dispatch.TypeTensor).Aliases("a"),
			dispatch.Arg("dim0", dispatch.TypeInt),
			dispatch.Arg("dim1", dispatch.TypeInt),
		},
		Returns: []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor).Aliases("a")},
	}, handleTranspose)

	l.register(dispatch.Schema{
		Name: "cat",
		Arguments: []dispatch.Argument{
			dispatch.Arg("tensors", dispatch.TypeTensorList),
			dispatch.Arg("dim", dispatch.TypeInt),
		},
		Returns: []dispatch.Argument{dispatch.Ret(dispatch.TypeTensor)},
	}, handleCat)
}

// handleTranspose returns a view of self with dim0 and dim1 swapped.
func handleTranspose(_ *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	x := in[0]
	d0, err := tensor.NormalizeDim(int(args[1].ToInt()), x.Dim())
	if err != nil {
		return nil, err
	}
	d1, err := tensor.NormalizeDim(int(args[2].ToInt()), x.Dim())
	if err != nil {
		return nil, err
	}
	axes := make([]int, x.Dim())
	for i := range axes {
		axes[i] = i
	}
	axes[d0], axes[d1] = axes[d1], axes[d0]
	out, err := x.Permute(axes...)
	if err != nil {
		return nil, err
	}
	return tensors(out), nil
}

func handleCat(_ *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	list := args[0].ToTensorList()
	raws := make([]*tensor.RawTensor, len(list))
	for i, t := range list {
		raw, ok := t.(*tensor.RawTensor)
		if !ok || raw == nil {
			return nil, fmt.Errorf("tensors[%d]: expected a plain Tensor, got %T", i, t)
		}
		raws[i] = raw
	}
	out, err := tensor.Cat(raws, int(args[1].ToInt()))
	if err != nil {
		return nil, err
	}
	return tensors(out), nil
}
