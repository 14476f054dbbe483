package webgpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

func checkFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(fmt.Sprintf("webgpu: %s: only float32 is supported, got %s", op, t.DType()))
		}
	}
}

// broadcastStrides maps an input's strides onto the output rank, using
// zero strides for broadcast dimensions.
func broadcastStrides(in, out tensor.Shape) []uint32 {
	inStrides := in.ComputeStrides()
	strides := make([]uint32, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue
		}
		if in[d-offset] == 1 && out[d] != 1 {
			continue
		}
		strides[d] = uint32(inStrides[d-offset])
	}
	return strides
}

func (b *Backend) newResult(shape tensor.Shape, data []byte) *tensor.RawTensor {
	result := tensor.MustNewRaw(shape, tensor.Float32, tensor.WebGPU)
	copy(result.Data(), data)
	return result
}

// binaryOp executes an element-wise binary operation with NumPy-style
// broadcasting. Same-shape inputs take the simple shader; mismatched
// shapes go through the strided-broadcast variant.
func (b *Backend) binaryOp(name, symbol, sameShapeShader string, x, y *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32(name, x, y)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s: %v", name, err))
	}
	n := outShape.NumElements()

	if !needsBroadcast {
		data, err := b.runKernel(name, sameShapeShader,
			[][]byte{x.Data(), y.Data()}, n*4, uniformU32(uint32(n)), workgroups1D(n))
		if err != nil {
			panic("webgpu: " + name + ": " + err.Error())
		}
		return b.newResult(outShape, data)
	}

	rank := len(outShape)
	meta := make([]uint32, 0, 3*rank)
	for _, s := range outShape.ComputeStrides() {
		meta = append(meta, uint32(s))
	}
	meta = append(meta, broadcastStrides(x.Shape(), outShape)...)
	meta = append(meta, broadcastStrides(y.Shape(), outShape)...)

	data, err := b.runKernel(name+"_broadcast", broadcastShader(symbol),
		[][]byte{x.Data(), y.Data(), u32Bytes(meta)}, n*4,
		uniformU32(uint32(n), uint32(rank)), workgroups1D(n))
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return b.newResult(outShape, data)
}

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("add", "+", addShader, a, other)
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("sub", "-", subShader, a, other)
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("mul", "*", mulShader, a, other)
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("div", "/", divShader, a, other)
}

func (b *Backend) scalarOp(name, symbol string, x *tensor.RawTensor, s float64) *tensor.RawTensor {
	checkFloat32(name, x)
	n := x.NumElements()
	data, err := b.runKernel(name, scalarShader(symbol),
		[][]byte{x.Data()}, n*4, uniformU32(uint32(n), f32Bits(s)), workgroups1D(n))
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return b.newResult(x.Shape(), data)
}

// AddScalar adds a scalar to every element on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.scalarOp("add_scalar", "+", x, s)
}

// SubScalar subtracts a scalar from every element on GPU.
func (b *Backend) SubScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.scalarOp("sub_scalar", "-", x, s)
}

// MulScalar multiplies every element by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.scalarOp("mul_scalar", "*", x, s)
}

// DivScalar divides every element by a scalar on GPU.
func (b *Backend) DivScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	if s == 0 {
		panic("webgpu: div_scalar: division by zero")
	}
	return b.scalarOp("div_scalar", "/", x, s)
}

func (b *Backend) unaryOp(name, code string, x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32(name, x)
	n := x.NumElements()
	data, err := b.runKernel(name, code, [][]byte{x.Data()}, n*4,
		uniformU32(uint32(n)), workgroups1D(n))
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return b.newResult(x.Shape(), data)
}

// Sqrt computes the element-wise square root on GPU.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOp("sqrt", sqrtShader, x)
}

// Rsqrt computes the element-wise reciprocal square root on GPU.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOp("rsqrt", rsqrtShader, x)
}

// MatMul performs matrix multiplication on GPU with 16x16 workgroups.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("matmul", a, other)
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		panic(fmt.Sprintf("webgpu: matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape()))
	}
	m, k, n := a.Shape()[0], a.Shape()[1], other.Shape()[1]
	if other.Shape()[0] != k {
		panic(fmt.Sprintf("webgpu: matmul shape mismatch: [%d,%d] @ %v", m, k, other.Shape()))
	}

	data, err := b.runKernel("matmul", matmulShader,
		[][]byte{a.Data(), other.Data()}, m*n*4,
		uniformU32(uint32(m), uint32(k), uint32(n)),
		[3]uint32{uint32((n + 15) / 16), uint32((m + 15) / 16), 1})
	if err != nil {
		panic("webgpu: matmul: " + err.Error())
	}
	return b.newResult(tensor.Shape{m, n}, data)
}

// Reshape returns a tensor with a new shape. The element order is
// unchanged, so no dispatch is needed.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic("webgpu: reshape: invalid shape: " + err.Error())
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	return b.newResult(newShape.Clone(), t.Data())
}

// Transpose permutes tensor dimensions on GPU. With no axes the
// dimension order is reversed.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	checkFloat32("transpose", t)
	shape := t.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("webgpu: transpose: got %d axes for rank %d", len(axes), rank))
	}
	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("webgpu: transpose: invalid axes %v for rank %d", axes, rank))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	if rank < 2 {
		return b.newResult(outShape, t.Data())
	}

	inStrides := shape.ComputeStrides()
	n := outShape.NumElements()
	meta := make([]uint32, 0, 2*rank)
	for _, s := range outShape.ComputeStrides() {
		meta = append(meta, uint32(s))
	}
	for _, ax := range axes {
		meta = append(meta, uint32(inStrides[ax]))
	}

	data, err := b.runKernel("transpose", transposeShader,
		[][]byte{t.Data(), u32Bytes(meta)}, n*4,
		uniformU32(uint32(n), uint32(rank)), workgroups1D(n))
	if err != nil {
		panic("webgpu: transpose: " + err.Error())
	}
	return b.newResult(outShape, data)
}

// Sum reduces the whole tensor to a 0-d scalar. The shader tree-reduces
// each workgroup to one partial; the partials are combined on the host.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("sum", x)
	n := x.NumElements()
	groups := (n + workgroupSize - 1) / workgroupSize
	if groups == 0 {
		groups = 1
	}

	data, err := b.runKernel("sum", sumShader, [][]byte{x.Data()}, groups*4,
		uniformU32(uint32(n)), [3]uint32{uint32(groups), 1, 1})
	if err != nil {
		panic("webgpu: sum: " + err.Error())
	}

	result := tensor.MustNewRaw(tensor.Shape{}, tensor.Float32, tensor.WebGPU)
	partials := b.newResult(tensor.Shape{groups}, data).AsFloat32()
	var total float64
	for _, v := range partials {
		total += float64(v)
	}
	result.AsFloat32()[0] = float32(total)
	return result
}

// SumDim sums along one dimension on GPU.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim("sum_dim", x, dim, keepDim, false)
}

// MeanDim averages along one dimension on GPU.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim("mean_dim", x, dim, keepDim, true)
}

func (b *Backend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	checkFloat32(name, x)
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("webgpu: %s: dim %d out of range for shape %v", name, dim, shape))
	}

	outer, size, inner := 1, shape[dim], 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, s)
	}

	meanFlag := uint32(0)
	if mean {
		meanFlag = 1
	}
	n := outer * inner
	data, err := b.runKernel("reduce_dim", sumDimShader, [][]byte{x.Data()}, n*4,
		uniformU32(uint32(outer), uint32(size), uint32(inner), meanFlag), workgroups1D(n))
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return b.newResult(outShape, data)
}
