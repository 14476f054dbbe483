// Package cpu implements the reference CPU backend.
//
// Every operation allocates its result; inputs are never modified. Only
// Float32 tensors are supported for computation, matching the device
// backend, so host and device runs always compare like for like.
package cpu

import (
	"fmt"
	"math"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// Backend implements tensor operations on the host CPU.
type Backend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU, par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return b.device
}

func checkFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(fmt.Sprintf("cpu: %s: only float32 is supported, got %s", op, t.DType()))
		}
	}
}

// binaryOp applies f element-wise with NumPy-style broadcasting.
func (b *Backend) binaryOp(op string, a, c *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	checkFloat32(op, a, c)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), c.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	ad, cd, rd := a.AsFloat32(), c.AsFloat32(), result.AsFloat32()

	if !needsBroadcast {
		for i := range rd {
			rd[i] = f(ad[i], cd[i])
		}
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	cStrides := broadcastStrides(c.Shape(), outShape)
	idx := make([]int, len(outShape))
	for i := range rd {
		ai, ci := 0, 0
		for d := range idx {
			ai += idx[d] * aStrides[d]
			ci += idx[d] * cStrides[d]
		}
		rd[i] = f(ad[ai], cd[ci])
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result
}

// broadcastStrides returns strides of shape `in` aligned to `out`, with
// zero stride on broadcast dimensions.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue
		}
		if in[d-offset] == 1 && out[d] != 1 {
			continue
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("add", a, c, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("sub", a, c, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("mul", a, c, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("div", a, c, func(x, y float32) float32 { return x / y })
}

func (b *Backend) scalarOp(op string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	checkFloat32(op, x)
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32, b.device)
	xd, rd := x.AsFloat32(), result.AsFloat32()
	for i := range rd {
		rd[i] = f(xd[i])
	}
	return result
}

// AddScalar adds a scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	sf := float32(s)
	return b.scalarOp("add_scalar", x, func(v float32) float32 { return v + sf })
}

// SubScalar subtracts a scalar from every element.
func (b *Backend) SubScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	sf := float32(s)
	return b.scalarOp("sub_scalar", x, func(v float32) float32 { return v - sf })
}

// MulScalar multiplies every element by a scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	sf := float32(s)
	return b.scalarOp("mul_scalar", x, func(v float32) float32 { return v * sf })
}

// DivScalar divides every element by a scalar.
func (b *Backend) DivScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	sf := float32(s)
	return b.scalarOp("div_scalar", x, func(v float32) float32 { return v / sf })
}

// Sqrt computes the element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.scalarOp("sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Rsqrt computes the element-wise reciprocal square root.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.scalarOp("rsqrt", x, func(v float32) float32 {
		return float32(1.0 / math.Sqrt(float64(v)))
	})
}
