package cpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// MatMul performs matrix multiplication: [M,K] @ [K,N] -> [M,N].
func (b *Backend) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("matmul", a, c)

	as, cs := a.Shape(), c.Shape()
	if len(as) != 2 || len(cs) != 2 {
		panic(fmt.Sprintf("cpu: matmul: requires 2D tensors, got %v and %v", as, cs))
	}
	if as[1] != cs[0] {
		panic(fmt.Sprintf("cpu: matmul: shape mismatch %v @ %v", as, cs))
	}

	m, k, n := as[0], as[1], cs[1]
	result := tensor.MustNewRaw(tensor.Shape{m, n}, tensor.Float32, b.device)
	ad, cd, rd := a.AsFloat32(), c.AsFloat32(), result.AsFloat32()

	// ikj loop order keeps the inner loop sequential over both c and
	// result. Rows of the result are independent, so they parallelize.
	parallel.For(m, func(i int) {
		for p := 0; p < k; p++ {
			av := ad[i*k+p]
			if av == 0 {
				continue
			}
			cRow := cd[p*n : (p+1)*n]
			rRow := rd[i*n : (i+1)*n]
			for j := range rRow {
				rRow[j] += av * cRow[j]
			}
		}
	}, b.par)
	return result
}
