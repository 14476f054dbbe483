package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// BatchNorm2D normalizes [N,C,H,W] input per channel using batch
// statistics in training mode and tracked running statistics in eval
// mode, then applies a learned per-channel affine transform.
//
// Running statistics are plain tracked state, not trainable parameters:
// they are updated from raw values after the tape-recorded computation,
// so no gradient flows through the update.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float64
	momentum    float64
	eval        bool

	weight *Parameter[B] // [C], initialized to ones
	bias   *Parameter[B] // [C], initialized to zeros

	runningMean *tensor.RawTensor // [C]
	runningVar  *tensor.RawTensor // [C]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer over C channels.
// A zero eps defaults to 1e-5 and a zero momentum to 0.1.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, eps, momentum float64, backend B) (*BatchNorm2D[B], error) {
	if numFeatures <= 0 {
		return nil, fmt.Errorf("nn: batchnorm2d: invalid feature count %d", numFeatures)
	}
	if eps < 0 {
		return nil, fmt.Errorf("nn: batchnorm2d: invalid eps %v", eps)
	}
	if eps == 0 {
		eps = defaultNormEps
	}
	if momentum < 0 || momentum > 1 {
		return nil, fmt.Errorf("nn: batchnorm2d: invalid momentum %v", momentum)
	}
	if momentum == 0 {
		momentum = 0.1
	}

	shape := tensor.Shape{numFeatures}
	runningVar := tensor.MustNewRaw(shape.Clone(), tensor.Float32, backend.Device())
	rv := runningVar.AsFloat32()
	for i := range rv {
		rv[i] = 1
	}

	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		eps:         eps,
		momentum:    momentum,
		weight:      NewParameter("weight", Ones(shape.Clone(), backend)),
		bias:        NewParameter("bias", Zeros(shape.Clone(), backend)),
		runningMean: tensor.MustNewRaw(shape.Clone(), tensor.Float32, backend.Device()),
		runningVar:  runningVar,
		backend:     backend,
	}, nil
}

// SetEval switches between batch statistics and running statistics.
func (b *BatchNorm2D[B]) SetEval(eval bool) { b.eval = eval }

// Forward normalizes the input per channel.
func (b *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("nn: batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != b.numFeatures {
		panic(fmt.Sprintf("nn: batchnorm2d: input channels %d != expected %d", shape[1], b.numFeatures))
	}

	var normed *tensor.Tensor[float32, B]
	if b.eval {
		mean := constFromChannels(b.runningMean.AsFloat32(), b.backend)
		variance := constFromChannels(b.runningVar.AsFloat32(), b.backend)
		normed = input.Sub(mean).Mul(variance.AddScalar(b.eps).Rsqrt())
	} else {
		// Successive single-axis means over N, H, W with kept dims
		// give the per-channel mean as a broadcastable [1,C,1,1].
		mean := input.MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		centered := input.Sub(mean)
		variance := centered.Mul(centered).MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
		normed = centered.Mul(variance.AddScalar(b.eps).Rsqrt())
		b.updateRunningStats(mean.Raw().AsFloat32(), variance.Raw().AsFloat32(), shape)
	}

	c := b.numFeatures
	return normed.Mul(b.weight.Tensor().Reshape(1, c, 1, 1)).Add(b.bias.Tensor().Reshape(1, c, 1, 1))
}

// updateRunningStats folds the batch statistics into the running ones.
// The batch variance is corrected to its unbiased form before tracking.
func (b *BatchNorm2D[B]) updateRunningStats(batchMean, batchVar []float32, shape tensor.Shape) {
	n := shape[0] * shape[2] * shape[3]
	correction := 1.0
	if n > 1 {
		correction = float64(n) / float64(n-1)
	}
	rm := b.runningMean.AsFloat32()
	rv := b.runningVar.AsFloat32()
	for i := 0; i < b.numFeatures; i++ {
		rm[i] = float32((1-b.momentum)*float64(rm[i]) + b.momentum*float64(batchMean[i]))
		rv[i] = float32((1-b.momentum)*float64(rv[i]) + b.momentum*float64(batchVar[i])*correction)
	}
}

// Parameters returns the affine parameters [weight, bias].
func (b *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{b.weight, b.bias}
}

// StateDict returns the affine parameters plus the running statistics.
func (b *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := stateDictOf(b.Parameters())
	stateDict["running_mean"] = b.runningMean
	stateDict["running_var"] = b.runningVar
	return stateDict
}

// LoadStateDict loads the affine parameters and running statistics.
func (b *BatchNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadStateDictInto(b.Parameters(), stateDict); err != nil {
		return err
	}
	for name, dst := range map[string]*tensor.RawTensor{
		"running_mean": b.runningMean,
		"running_var":  b.runningVar,
	} {
		src, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("nn: missing %q in state dict", name)
		}
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("nn: %q shape mismatch: expected %v, got %v", name, dst.Shape(), src.Shape())
		}
		copy(dst.Data(), src.Data())
	}
	return nil
}

// constFromChannels lifts per-channel values into a [1,C,1,1] constant.
func constFromChannels[B tensor.Backend](values []float32, backend B) *tensor.Tensor[float32, B] {
	i := 0
	return constTensor(tensor.Shape{1, len(values), 1, 1}, backend, func() float32 {
		v := values[i]
		i++
		return v
	})
}
