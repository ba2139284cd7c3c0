/*
Package graph contains the core domain model for the Strata adaptive audio engine.

It defines the state graph aggregate (states, transitions, parameters, layers)
and the validated mutation operations over it. This package is kept pure and
free of I/O or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - StateGraph: The aggregate root. Owns states, transitions, parameters and layers.
  - AudioState: A named audio configuration (active layers, volumes).
  - StateTransition: A directed, condition-guarded edge between two states.
  - Parameter: A declared runtime input (number, boolean or string) with bounds.
  - AudioLayer: A named logical audio track with a source selection strategy.

All mutation operations are value-in/value-out: they take a graph value and
return a new graph value that is guaranteed structurally valid. Consumers
(engine, simulator, compiler) never observe a half-mutated graph.
*/
package graph
