/*
Package recoma is a best-first search engine for multi-step textual reasoning.

It keeps a tree of reasoning steps, repeatedly pops the most promising unfinished tree
from a priority queue, hands its open node to a named handler for expansion, and pushes
the successors back until a tree fully resolves or a stopping condition fires.

# Concept

Every node names the handler ("model") that will expand it. Handlers are plain Go values
behind the ports.Handler interface: generators that call a text producer, decomposition
controllers that alternate sub-questions and answers, extractors that pull the answer out
of free text. The engine only knows the tree discipline (the open node is always the
first unresolved node in postorder) and the loop; handlers, stopping policies, answer
extraction, renderers and result stores are all plug-ins.

# Key Features

  - Failure isolation: a handler that panics, names an unknown target or breaks the tree
    contract only prunes its candidate; other branches keep going.
  - Early stopping: depth, iteration, call-count and cost policies evaluated in order.
  - Configuration files: YAML or JSON records select and parameterize every component.
  - Batch runs: a bounded worker pool, persistent results (file, Redis, Badger) and
    cross-process task locks.
  - Adapters: HTTP and MCP servers, Prometheus metrics, OpenTelemetry spans.

# Usage

Build an engine from a configuration file:

	eng, err := recoma.New("config.yaml")
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	res, err := eng.Solve(context.Background(), "What is six times seven?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Answer, res.Outcome)

Or wire handlers in code with NewFromRegistry (see the examples).
*/
package recoma
