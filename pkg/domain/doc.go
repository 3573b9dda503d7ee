/*
Package domain contains the core data model of the recoma search engine.

It defines the reasoning trace that handlers extend step by step, the task payload
being solved, and the result handed back to callers. This package is kept pure and
free of I/O, following Hexagonal Architecture principles: handlers, stores and
renderers live behind the interfaces in package ports.

# Key Entities

  - Tree: an arena of Nodes plus score and counters. The only way to branch is Clone.
  - Node: one reasoning step. Exactly one node per tree is "the" open node: the first
    open node in a left-to-right postorder walk.
  - Task: the immutable question/goal a tree is solving.
  - Result: the answer, outcome and final tree produced for one Task.
  - SearchHooks: lifecycle callbacks for observability.
*/
package domain
