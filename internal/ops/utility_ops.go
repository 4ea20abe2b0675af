package ops

import (
	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

func (l *Library) registerUtilityOps() {
	l.register(dispatch.Schema{
		Name:      "numel",
		Arguments: []dispatch.Argument{dispatch.Arg("self", dispatch.TypeTensor)},
		Returns:   []dispatch.Argument{dispatch.Ret(dispatch.TypeInt)},
	}, handleNumel)

	l.register(unarySchema("clone"), handleClone)
}

func handleNumel(_ *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return []dispatch.IValue{dispatch.IntValue(int64(in[0].NumElements()))}, nil
}

// handleClone returns a dense copy that shares no storage with self.
func handleClone(_ *Context, args []dispatch.IValue) ([]dispatch.IValue, error) {
	in, err := rawArgs(args, 1)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewRaw(in[0].Shape(), in[0].DType(), in[0].Device())
	if err != nil {
		return nil, err
	}
	if err := out.CopyFrom(in[0]); err != nil {
		return nil, err
	}
	return tensors(out), nil
}
