// Package ops is the operator library: schemas and CPU-backed kernels for
// the operators callable through a dispatch.Dispatcher.
//
// Kernels only ever see plain tensors. Calls on batched tensors are routed
// by the dispatcher to the batching rules in this package or to the vmap
// fallback.
//
// Supported operators:
//   - Math: add.Tensor, sub.Tensor, mul.Tensor, div.Tensor, mul.Scalar, neg, exp, sin, cos
//   - Reductions: sum.dim, max.dim
//   - Mutating: add_.Tensor, mul_.Tensor, add.out
//   - Shape: transpose.int, cat
//   - Utility: numel, clone
package ops
