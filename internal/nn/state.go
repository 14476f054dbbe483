package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// stateDictOf exports parameters by name. All layers in this package
// build their StateDict from this helper.
func stateDictOf[B tensor.Backend](params []*Parameter[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

// loadStateDictInto copies values from a state dictionary into the given
// parameters, matching by name. The destination keeps its own device tag;
// raw tensor buffers are always host-visible, so a byte copy suffices even
// when source and destination live on different devices.
func loadStateDictInto[B tensor.Backend](params []*Parameter[B], stateDict map[string]*tensor.RawTensor) error {
	for _, p := range params {
		src, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("nn: missing %q in state dict", p.Name())
		}
		dst := p.Tensor().Raw()
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("nn: %q shape mismatch: expected %v, got %v", p.Name(), dst.Shape(), src.Shape())
		}
		if src.DType() != dst.DType() {
			return fmt.Errorf("nn: %q dtype mismatch: expected %v, got %v", p.Name(), dst.DType(), src.DType())
		}
		copy(dst.Data(), src.Data())
	}
	return nil
}
