/*
Package handlers contains the built-in symbolic handlers.

Every handler follows the same discipline: clone the tree it is given, work on the clone's
open node, and return the resulting successors. Controllers such as decomp_control keep
their node open across several calls and append children targeting other handlers; the
search resolves those children first and calls the controller again.

# Built-ins

  - passthrough: closes the node with its own input.
  - regex_ext: closes the node with the first capture group of a regex.
  - router: routes "[name] question" to the named handler and returns its answer.
  - decomp_control: alternates decomposition and question-answering steps.
  - l2m_control: least-to-most prompting controller.
  - generator: closes the node once per output of a ports.Generator.
  - math_exec: evaluates a Starlark program and returns its "answer" global as JSON.
*/
package handlers
