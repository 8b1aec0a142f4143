/*
Package dsp provides per-sample signal kernels.

Every kernel has a lane path, which processes Lanes samples per step with
independent accumulators, and an element-wise path used for spans shorter
than Lanes and for the tail of longer spans. Both paths produce the same
result within floating point rounding.

Kernels operate on a single channel. Binary kernels require spans of equal
length and return ErrLengthMismatch otherwise.
*/
package dsp
