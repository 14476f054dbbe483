package webgpu

// Embedded WGSL compute shaders for tensor operations.
// Using string constants instead of embed for simplicity.

import "fmt"

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// addShader performs element-wise addition: result = a + b.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`

// subShader performs element-wise subtraction: result = a - b.
const subShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] - b[idx];
    }
}
`

// mulShader performs element-wise multiplication: result = a * b.
const mulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] * b[idx];
    }
}
`

// divShader performs element-wise division: result = a / b.
const divShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] / b[idx];
    }
}
`

// broadcastShader builds a strided binary shader for mismatched shapes.
// The meta buffer holds three stride tables over the output rank:
// output strides, then per-output-dimension strides into a and b, with
// zero strides on broadcast dimensions.
func broadcastShader(op string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<u32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    rank: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    var rem = idx;
    var ai = 0u;
    var bi = 0u;
    for (var d = 0u; d < params.rank; d = d + 1u) {
        let c = rem / meta[d];
        rem = rem - c * meta[d];
        ai = ai + c * meta[params.rank + d];
        bi = bi + c * meta[2u * params.rank + d];
    }
    result[idx] = a[ai] %s b[bi];
}
`, op)
}

// scalarShader builds an element-wise shader combining x with a constant.
const scalarShaderTemplate = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    value: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = x[idx] %s params.value;
    }
}
`

func scalarShader(op string) string {
	return fmt.Sprintf(scalarShaderTemplate, op)
}

// sqrtShader computes the element-wise square root.
const sqrtShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = sqrt(x[idx]);
    }
}
`

// rsqrtShader computes the element-wise reciprocal square root.
const rsqrtShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = inverseSqrt(x[idx]);
    }
}
`

// matmulShader performs matrix multiplication: C = A @ B.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = sum;
}
`

// transposeShader permutes tensor dimensions. The meta buffer holds the
// output strides followed by, per output dimension, the stride of the
// source dimension it was taken from.
const transposeShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> meta: array<u32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    rank: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    var rem = idx;
    var src = 0u;
    for (var d = 0u; d < params.rank; d = d + 1u) {
        let c = rem / meta[d];
        rem = rem - c * meta[d];
        src = src + c * meta[params.rank + d];
    }
    result[idx] = x[src];
}
`

// sumShader reduces the input to one partial sum per workgroup using a
// shared-memory tree reduction. The partials are combined on the host.
const sumShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> scratch: array<f32, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) group_id: vec3<u32>,
) {
    var v: f32 = 0.0;
    if (global_id.x < params.size) {
        v = x[global_id.x];
    }
    scratch[local_id.x] = v;
    workgroupBarrier();

    var stride = 128u;
    while (stride > 0u) {
        if (local_id.x < stride) {
            scratch[local_id.x] = scratch[local_id.x] + scratch[local_id.x + stride];
        }
        workgroupBarrier();
        stride = stride / 2u;
    }

    if (local_id.x == 0u) {
        result[group_id.x] = scratch[0];
    }
}
`

// sumDimShader reduces one dimension. The input is viewed as
// [outer, size, inner]; each thread owns one (outer, inner) pair.
const sumDimShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    outer: u32,
    size: u32,
    inner: u32,
    mean: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.outer * params.inner) {
        return;
    }
    let o = idx / params.inner;
    let i = idx % params.inner;
    var sum: f32 = 0.0;
    for (var j = 0u; j < params.size; j = j + 1u) {
        sum = sum + x[(o * params.size + j) * params.inner + i];
    }
    if (params.mean == 1u) {
        sum = sum / f32(params.size);
    }
    result[idx] = sum;
}
`

// conv2dShader performs grouped 2D cross-correlation (dilation 1).
// Input [N,C_in,H,W], kernel [C_out,C_in/g,KH,KW]. A non-zero flip reads
// the kernel window back to front (true convolution).
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    c_in_g: u32,
    c_out_g: u32,
    out_h: u32,
    out_w: u32,
    flip: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let co = (idx / (params.out_w * params.out_h)) % params.c_out;
    let n = idx / (params.out_w * params.out_h * params.c_out);
    let g = co / params.c_out_g;

    var sum: f32 = 0.0;
    for (var ki = 0u; ki < params.kh; ki = ki + 1u) {
        let ih = i32(oh * params.stride_h + ki) - i32(params.pad_h);
        if (ih < 0 || ih >= i32(params.h)) {
            continue;
        }
        for (var kj = 0u; kj < params.kw; kj = kj + 1u) {
            let iw = i32(ow * params.stride_w + kj) - i32(params.pad_w);
            if (iw < 0 || iw >= i32(params.w)) {
                continue;
            }
            var wi = ki;
            var wj = kj;
            if (params.flip == 1u) {
                wi = params.kh - 1u - ki;
                wj = params.kw - 1u - kj;
            }
            for (var cg = 0u; cg < params.c_in_g; cg = cg + 1u) {
                let ci = g * params.c_in_g + cg;
                let in_idx = ((n * params.c_in + ci) * params.h + u32(ih)) * params.w + u32(iw);
                let k_idx = ((co * params.c_in_g + cg) * params.kh + wi) * params.kw + wj;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// conv2dInputBackwardShader gathers, for every input element, the output
// gradients of the convolution windows that read it.
const conv2dInputBackwardShader = `
@group(0) @binding(0) var<storage, read> kernel: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    c_in_g: u32,
    c_out_g: u32,
    out_h: u32,
    out_w: u32,
    flip: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let iw = idx % params.w;
    let ih = (idx / params.w) % params.h;
    let ci = (idx / (params.w * params.h)) % params.c_in;
    let n = idx / (params.w * params.h * params.c_in);
    let g = ci / params.c_in_g;
    let cg = ci % params.c_in_g;

    var sum: f32 = 0.0;
    for (var ki = 0u; ki < params.kh; ki = ki + 1u) {
        let oh_num = i32(ih + params.pad_h) - i32(ki);
        if (oh_num < 0 || oh_num % i32(params.stride_h) != 0) {
            continue;
        }
        let oh = u32(oh_num) / params.stride_h;
        if (oh >= params.out_h) {
            continue;
        }
        for (var kj = 0u; kj < params.kw; kj = kj + 1u) {
            let ow_num = i32(iw + params.pad_w) - i32(kj);
            if (ow_num < 0 || ow_num % i32(params.stride_w) != 0) {
                continue;
            }
            let ow = u32(ow_num) / params.stride_w;
            if (ow >= params.out_w) {
                continue;
            }
            var wi = ki;
            var wj = kj;
            if (params.flip == 1u) {
                wi = params.kh - 1u - ki;
                wj = params.kw - 1u - kj;
            }
            for (var cog = 0u; cog < params.c_out_g; cog = cog + 1u) {
                let co = g * params.c_out_g + cog;
                let g_idx = ((n * params.c_out + co) * params.out_h + oh) * params.out_w + ow;
                let k_idx = ((co * params.c_in_g + cg) * params.kh + wi) * params.kw + wj;
                sum = sum + grad[g_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// conv2dKernelBackwardShader computes the gradient for one stored kernel
// element per thread, honoring the flip remapping of the forward pass.
const conv2dKernelBackwardShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    n: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    c_in_g: u32,
    c_out_g: u32,
    out_h: u32,
    out_w: u32,
    flip: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    // idx addresses the stored weight element (co, cg, wi, wj); the
    // window offset it accumulates over is the flip pre-image.
    let wj = idx % params.kw;
    let wi = (idx / params.kw) % params.kh;
    let cg = (idx / (params.kw * params.kh)) % params.c_in_g;
    let co = idx / (params.kw * params.kh * params.c_in_g);
    let g = co / params.c_out_g;
    let ci = g * params.c_in_g + cg;

    var ki = wi;
    var kj = wj;
    if (params.flip == 1u) {
        ki = params.kh - 1u - wi;
        kj = params.kw - 1u - wj;
    }

    var sum: f32 = 0.0;
    for (var n = 0u; n < params.n; n = n + 1u) {
        for (var oh = 0u; oh < params.out_h; oh = oh + 1u) {
            let ih = i32(oh * params.stride_h + ki) - i32(params.pad_h);
            if (ih < 0 || ih >= i32(params.h)) {
                continue;
            }
            for (var ow = 0u; ow < params.out_w; ow = ow + 1u) {
                let iw = i32(ow * params.stride_w + kj) - i32(params.pad_w);
                if (iw < 0 || iw >= i32(params.w)) {
                    continue;
                }
                let g_idx = ((n * params.c_out + co) * params.out_h + oh) * params.out_w + ow;
                let in_idx = ((n * params.c_in + ci) * params.h + u32(ih)) * params.w + u32(iw);
                sum = sum + grad[g_idx] * input[in_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// convTranspose2dShader performs 2D transposed convolution (groups 1).
// Input [N,C_in,H,W], kernel [C_in,C_out,KH,KW].
const convTranspose2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let co = (idx / (params.out_w * params.out_h)) % params.c_out;
    let n = idx / (params.out_w * params.out_h * params.c_out);

    var sum: f32 = 0.0;
    for (var ki = 0u; ki < params.kh; ki = ki + 1u) {
        let ih_num = i32(oh + params.pad_h) - i32(ki);
        if (ih_num < 0 || ih_num % i32(params.stride_h) != 0) {
            continue;
        }
        let ih = u32(ih_num) / params.stride_h;
        if (ih >= params.h) {
            continue;
        }
        for (var kj = 0u; kj < params.kw; kj = kj + 1u) {
            let iw_num = i32(ow + params.pad_w) - i32(kj);
            if (iw_num < 0 || iw_num % i32(params.stride_w) != 0) {
                continue;
            }
            let iw = u32(iw_num) / params.stride_w;
            if (iw >= params.w) {
                continue;
            }
            for (var ci = 0u; ci < params.c_in; ci = ci + 1u) {
                let in_idx = ((n * params.c_in + ci) * params.h + ih) * params.w + iw;
                let k_idx = ((ci * params.c_out + co) * params.kh + ki) * params.kw + kj;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// convTranspose2dInputBackwardShader is a plain strided cross-correlation
// of the output gradient with the kernel (groups 1).
const convTranspose2dInputBackwardShader = `
@group(0) @binding(0) var<storage, read> kernel: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let iw = idx % params.w;
    let ih = (idx / params.w) % params.h;
    let ci = (idx / (params.w * params.h)) % params.c_in;
    let n = idx / (params.w * params.h * params.c_in);

    var sum: f32 = 0.0;
    for (var co = 0u; co < params.c_out; co = co + 1u) {
        for (var ki = 0u; ki < params.kh; ki = ki + 1u) {
            let oh = i32(ih * params.stride_h + ki) - i32(params.pad_h);
            if (oh < 0 || oh >= i32(params.out_h)) {
                continue;
            }
            for (var kj = 0u; kj < params.kw; kj = kj + 1u) {
                let ow = i32(iw * params.stride_w + kj) - i32(params.pad_w);
                if (ow < 0 || ow >= i32(params.out_w)) {
                    continue;
                }
                let g_idx = ((n * params.c_out + co) * params.out_h + u32(oh)) * params.out_w + u32(ow);
                let k_idx = ((ci * params.c_out + co) * params.kh + ki) * params.kw + kj;
                sum = sum + grad[g_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// convTranspose2dKernelBackwardShader computes the gradient for one
// kernel element per thread (groups 1).
const convTranspose2dKernelBackwardShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    n: u32,
    c_in: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let kj = idx % params.kw;
    let ki = (idx / params.kw) % params.kh;
    let co = (idx / (params.kw * params.kh)) % params.c_out;
    let ci = idx / (params.kw * params.kh * params.c_out);

    var sum: f32 = 0.0;
    for (var n = 0u; n < params.n; n = n + 1u) {
        for (var ih = 0u; ih < params.h; ih = ih + 1u) {
            let oh = i32(ih * params.stride_h + ki) - i32(params.pad_h);
            if (oh < 0 || oh >= i32(params.out_h)) {
                continue;
            }
            for (var iw = 0u; iw < params.w; iw = iw + 1u) {
                let ow = i32(iw * params.stride_w + kj) - i32(params.pad_w);
                if (ow < 0 || ow >= i32(params.out_w)) {
                    continue;
                }
                let in_idx = ((n * params.c_in + ci) * params.h + ih) * params.w + iw;
                let g_idx = ((n * params.c_out + co) * params.out_h + u32(oh)) * params.out_w + u32(ow);
                sum = sum + input[in_idx] * grad[g_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// maxPool2dShader performs 2D max pooling over [N,C,H,W].
const maxPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c: u32,
    h: u32,
    w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let plane = idx / (params.out_w * params.out_h);
    let base = plane * params.h * params.w;

    var best: f32 = -3.4028235e38;
    for (var ki = 0u; ki < params.kernel_h; ki = ki + 1u) {
        let ih = oh * params.stride_h + ki;
        for (var kj = 0u; kj < params.kernel_w; kj = kj + 1u) {
            let iw = ow * params.stride_w + kj;
            let v = input[base + ih * params.w + iw];
            if (v > best) {
                best = v;
            }
        }
    }
    result[idx] = best;
}
`

// maxPool2dBackwardShader routes each window gradient to the first
// maximal element in scan order, matching the CPU backend's tie rule.
// Gather form: every input element checks the windows covering it.
const maxPool2dBackwardShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c: u32,
    h: u32,
    w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let iw = idx % params.w;
    let ih = (idx / params.w) % params.h;
    let plane = idx / (params.w * params.h);
    let base = plane * params.h * params.w;

    var sum: f32 = 0.0;
    for (var oh = 0u; oh < params.out_h; oh = oh + 1u) {
        let top = oh * params.stride_h;
        if (ih < top || ih >= top + params.kernel_h) {
            continue;
        }
        for (var ow = 0u; ow < params.out_w; ow = ow + 1u) {
            let left = ow * params.stride_w;
            if (iw < left || iw >= left + params.kernel_w) {
                continue;
            }
            var best: f32 = -3.4028235e38;
            var best_idx = 0u;
            for (var ki = 0u; ki < params.kernel_h; ki = ki + 1u) {
                for (var kj = 0u; kj < params.kernel_w; kj = kj + 1u) {
                    let cand = base + (top + ki) * params.w + (left + kj);
                    let v = input[cand];
                    if (v > best) {
                        best = v;
                        best_idx = cand;
                    }
                }
            }
            if (best_idx == idx) {
                sum = sum + grad[(plane * params.out_h + oh) * params.out_w + ow];
            }
        }
    }
    result[idx] = sum;
}
`

// meanPool2dShader performs 2D mean pooling over [N,C,H,W].
const meanPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c: u32,
    h: u32,
    w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let plane = idx / (params.out_w * params.out_h);
    let base = plane * params.h * params.w;

    var sum: f32 = 0.0;
    for (var ki = 0u; ki < params.kernel_h; ki = ki + 1u) {
        let ih = oh * params.stride_h + ki;
        for (var kj = 0u; kj < params.kernel_w; kj = kj + 1u) {
            let iw = ow * params.stride_w + kj;
            sum = sum + input[base + ih * params.w + iw];
        }
    }
    result[idx] = sum / f32(params.kernel_h * params.kernel_w);
}
`

// meanPool2dBackwardShader spreads each window gradient uniformly.
// Gather form: every input element sums its share from covering windows.
const meanPool2dBackwardShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    c: u32,
    h: u32,
    w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let iw = idx % params.w;
    let ih = (idx / params.w) % params.h;
    let plane = idx / (params.w * params.h);
    let window = f32(params.kernel_h * params.kernel_w);

    var sum: f32 = 0.0;
    for (var oh = 0u; oh < params.out_h; oh = oh + 1u) {
        let top = oh * params.stride_h;
        if (ih < top || ih >= top + params.kernel_h) {
            continue;
        }
        for (var ow = 0u; ow < params.out_w; ow = ow + 1u) {
            let left = ow * params.stride_w;
            if (iw < left || iw >= left + params.kernel_w) {
                continue;
            }
            sum = sum + grad[(plane * params.out_h + oh) * params.out_w + ow] / window;
        }
    }
    result[idx] = sum;
}
`
