/*
Package node provides node kinds of the audio graph.

Source reads a sound source. Gain scales its input by a static or animated
value. Shift delays its input in time. Clip keeps its input within a time
range and silences the rest. Mixer sums any number of inputs. Effect
applies an effect processor. Resample converts its input from another
sample rate.

Every node kind has a Key, a semantic identity used to recognize and reuse
equivalent nodes between renders.
*/
package node
