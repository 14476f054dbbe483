package tensor

// ConvParams configures a 2D convolution (cross-correlation) kernel.
//
// Flip indexes the kernel window back to front in both spatial dimensions,
// turning cross-correlation into true convolution.
type ConvParams struct {
	StrideH, StrideW     int
	PadH, PadW           int
	DilationH, DilationW int
	Groups               int
	Flip                 bool
}

// ConvTransParams configures a 2D transposed convolution kernel.
type ConvTransParams struct {
	StrideH, StrideW int
	PadH, PadW       int
	Groups           int
}

// PoolParams configures a 2D pooling window.
type PoolParams struct {
	KernelH, KernelW int
	StrideH, StrideW int
}

// Backend defines the interface every compute backend implements.
// All operations allocate their results; inputs are never modified.
// Backend methods panic on misuse (shape/dtype errors) and on operations
// the backend does not support; fallible setup paths return errors from
// the backend constructor instead.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Element-wise operations with a scalar.
	AddScalar(x *RawTensor, s float64) *RawTensor
	SubScalar(x *RawTensor, s float64) *RawTensor
	MulScalar(x *RawTensor, s float64) *RawTensor
	DivScalar(x *RawTensor, s float64) *RawTensor

	// Element-wise math.
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Matrix multiplication for 2D tensors: [M,K] @ [K,N] -> [M,N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Reductions. Sum reduces to a 0-d scalar.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Convolution kernels.
	// Input [N,C_in,H,W], kernel [C_out,C_in/groups,KH,KW].
	Conv2D(input, kernel *RawTensor, p ConvParams) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, p ConvParams) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, p ConvParams) *RawTensor

	// Transposed convolution kernels.
	// Input [N,C_in,H,W], kernel [C_in,C_out/groups,KH,KW].
	ConvTranspose2D(input, kernel *RawTensor, p ConvTransParams) *RawTensor
	ConvTranspose2DInputBackward(input, kernel, grad *RawTensor, p ConvTransParams) *RawTensor
	ConvTranspose2DKernelBackward(input, kernel, grad *RawTensor, p ConvTransParams) *RawTensor

	// Pooling kernels over [N,C,H,W].
	MaxPool2D(input *RawTensor, p PoolParams) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, p PoolParams) *RawTensor
	MeanPool2D(input *RawTensor, p PoolParams) *RawTensor
	MeanPool2DBackward(input, grad *RawTensor, p PoolParams) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}

// Conv2DOutputShape computes the forward output shape for Conv2D.
func Conv2DOutputShape(input, kernel Shape, p ConvParams) Shape {
	kh := (kernel[2]-1)*p.DilationH + 1
	kw := (kernel[3]-1)*p.DilationW + 1
	outH := (input[2]+2*p.PadH-kh)/p.StrideH + 1
	outW := (input[3]+2*p.PadW-kw)/p.StrideW + 1
	return Shape{input[0], kernel[0], outH, outW}
}

// ConvTranspose2DOutputShape computes the forward output shape for
// ConvTranspose2D.
func ConvTranspose2DOutputShape(input, kernel Shape, p ConvTransParams) Shape {
	outC := kernel[1] * p.Groups
	outH := (input[2]-1)*p.StrideH - 2*p.PadH + kernel[2]
	outW := (input[3]-1)*p.StrideW - 2*p.PadW + kernel[3]
	return Shape{input[0], outC, outH, outW}
}

// Pool2DOutputShape computes the forward output shape for pooling.
func Pool2DOutputShape(input Shape, p PoolParams) Shape {
	outH := (input[2]-p.KernelH)/p.StrideH + 1
	outW := (input[3]-p.KernelW)/p.StrideW + 1
	return Shape{input[0], input[1], outH, outW}
}
