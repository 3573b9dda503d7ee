/*
Package ports defines the driven ports (interfaces) of the recoma search engine.

These interfaces decouple the best-first loop from the things it orchestrates, so the
same engine runs with built-in symbolic handlers, external model clients, different
result stores and any number of renderers.

# Key Interfaces

  - Handler: expands the open node of a tree into zero or more successor trees.
  - StoppingPolicy: vetoes a candidate tree before it re-enters the frontier.
  - Answerer: turns a (possibly unresolved) tree into the final answer string.
  - Renderer: serializes popped trees for inspection. Failures never affect the search.
  - Generator: produces text continuations for the generator handler.
  - ResultStore: persists per-task results.
  - TaskReader: loads tasks from a dataset file.
  - DistributedLocker: coordinates batch workers running on several machines.
*/
package ports
