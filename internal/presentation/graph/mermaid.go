package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/recoma/pkg/domain"
)

// Model describes one configured handler for the model graph.
type Model struct {
	Name string
	Type string
	// Targets are the models this one hands work to, keyed by parameter name.
	Targets map[string]string
}

// GenerateMermaid produces a Mermaid flowchart of the configured models.
// It applies semantic styling:
// - Start: ((Circle))
// - Generator: [[Subroutine]]
// - Controller (decomp_control, l2m_control, router): {Rhombus}
// - Default: [Rectangle]
func GenerateMermaid(start string, models []Model) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sorted := append([]Model(nil), models...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, m := range sorted {
		safeID := sanitizeMermaidID(m.Name)

		opener, closer := "[", "]"
		switch {
		case m.Name == start:
			opener, closer = "((", "))"
		case m.Type == "generator":
			opener, closer = "[[", "]]"
		case m.Type == "decomp_control" || m.Type == "l2m_control" || m.Type == "router":
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, escape(m.Name), escape(m.Type), closer)

		keys := make([]string, 0, len(m.Targets))
		for k := range m.Targets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(k), sanitizeMermaidID(m.Targets[k]))
		}
	}
	return sb.String()
}

// TreeMermaid draws one reasoning tree. Closed nodes are styled as visited and the
// open node, if any, as current.
func TreeMermaid(tree *domain.Tree) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	open, hasOpen := tree.OpenNode()
	var visited []string
	for id := range tree.Preorder() {
		n, err := tree.Node(id)
		if err != nil {
			continue
		}
		safeID := fmt.Sprintf("n%d", id)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", safeID, escape(truncate(n.Label(), 80)))
		for _, c := range n.Children() {
			fmt.Fprintf(&sb, "    %s --> n%d\n", safeID, c)
		}
		if !n.IsOpen() {
			visited = append(visited, safeID)
		}
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	for _, id := range visited {
		fmt.Fprintf(&sb, "    class %s visited;\n", id)
	}
	if hasOpen {
		fmt.Fprintf(&sb, "    class n%d current;\n", open)
	}
	return sb.String()
}

// Renderer writes TreeMermaid output next to the other renderer files.
type Renderer struct{}

func (Renderer) Format() string { return "mmd" }
func (Renderer) Suffix() string { return "_graph" }

func (Renderer) Render(tree *domain.Tree) ([]byte, error) {
	return []byte(TreeMermaid(tree)), nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
