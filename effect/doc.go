// Package effect provides effects for effect nodes.
//
// Effect values hold parameters and can be changed between renders.
// Processors read parameters on every call and keep only the signal
// state, e.g. delay lines and filter memory.
package effect
