// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/vmap/internal/tensor"

// Backend defines the kernels a compute device provides to the operator
// library. Kernels accept arbitrary strided views and return fresh
// contiguous tensors; the InPlace variants write into dst instead.
//
// Implementations:
//   - backend/cpu: Pure Go kernels, optionally split across goroutines
type Backend = tensor.Backend
