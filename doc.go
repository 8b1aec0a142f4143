/*
Package audiograph renders time windows of audio through a graph of nodes.

Concept

A render pass asks the output node of a frozen graph for a window of audio
time. Every node pulls its inputs first, possibly asking them for a
different window, then computes its own buffer:

    source -> gain -> shift -> mixer -> output
    source ---------------------^

Nodes memoize their output for the duration of a pass, so a node feeding
several consumers is computed exactly once. Graph.Process clears all
caches before each pass and after a failed one.

Components

Buffer is pooled multi-channel sample storage. It's reference counted:
nodes own their cached output, Graph.Process hands an extra reference to
the caller, who must release it.

Node is the contract every node kind implements. Base provides identity,
inputs, the pass cache and metrics. Concrete kinds are in the node
package, effects in the effect package, sound sources in the source
package.

Builder validates nodes and edges: self-loops, duplicate edges and edges
that would close a cycle are rejected and leave the builder unchanged.
Build sorts nodes topologically and freezes the graph.

ProcessContext describes the window, the sample rate and the animation
sampler of a pass. It also carries a context.Context: a canceled pass
returns ErrCanceled, which is not a processing error.

Incremental rebuilds with node reuse are provided by the session package.

Errors

All failures match one of the sentinel errors with errors.Is. Failures of
node computations are returned as *ProcessingError, which matches
ErrGraphProcessing and keeps the originating node.
*/
package audiograph
