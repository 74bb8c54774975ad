//go:build windows

package webgpu

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// maxWorkgroupsPerDim is the WebGPU default limit for one dispatch dimension.
// Larger launches spill into the y dimension.
const maxWorkgroupsPerDim = 65535

// padShader scatters compact features into the dense layout.
// One thread per dense element (c, i): dense[c*N+i] = compact[c*M+children[i]],
// or 0 when children[i] is negative.
const padShader = `
@group(0) @binding(0) var<storage, read> compact: array<f32>;
@group(0) @binding(1) var<storage, read> children: array<i32>;
@group(0) @binding(2) var<storage, read_write> dense: array<f32>;

struct Params {
    channels: u32,
    dense_nodes: u32,
    compact_nodes: u32,
    total: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(num_workgroups) num_groups: vec3<u32>,
) {
    let idx = global_id.y * num_groups.x * 256u + global_id.x;
    if (idx >= params.total) {
        return;
    }

    let c = idx / params.dense_nodes;
    let i = idx % params.dense_nodes;
    let k = children[i];

    if (k >= 0) {
        dense[idx] = compact[c * params.compact_nodes + u32(k)];
    } else {
        dense[idx] = 0.0;
    }
}
`

// depadShader gathers the non-empty rows of the dense layout.
// One thread per compact element (c, k): compact[c*M+k] = dense[c*N+rows[k]],
// where rows is the inverse of the children index.
const depadShader = `
@group(0) @binding(0) var<storage, read> dense: array<f32>;
@group(0) @binding(1) var<storage, read> rows: array<i32>;
@group(0) @binding(2) var<storage, read_write> compact: array<f32>;

struct Params {
    channels: u32,
    dense_nodes: u32,
    compact_nodes: u32,
    total: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(num_workgroups) num_groups: vec3<u32>,
) {
    let idx = global_id.y * num_groups.x * 256u + global_id.x;
    if (idx >= params.total) {
        return;
    }

    let c = idx / params.compact_nodes;
    let k = idx % params.compact_nodes;
    compact[idx] = dense[c * params.dense_nodes + u32(rows[k])];
}
`
