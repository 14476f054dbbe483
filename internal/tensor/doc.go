// Package tensor provides the core tensor types for the Ember framework:
// RawTensor (untyped buffer + metadata), the generic Tensor[T, B] wrapper,
// and the Backend interface that compute backends implement.
package tensor
