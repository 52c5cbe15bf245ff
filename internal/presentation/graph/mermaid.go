package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/smoc/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the node paths a conversation
// log has visited. Every path prefix becomes a node, linked to its parent.
// Consecutive bot messages are joined by a dotted edge in the order they
// arrived. It applies semantic styling:
// - Root segment: ((Circle))
// - Question (enabled controls): [/Parallelogram/]
// - Lead form (form fields): [[Subroutine]]
// - Default: [Rectangle]
// Nodes carrying a message are styled as visited; the latest one as current.
func GenerateMermaid(log []domain.NodeMessage) string {
	type node struct {
		id, label      string
		opener, closer string
	}

	var (
		nodes   []*node
		byID    = make(map[string]*node)
		edges   []string
		seen    = make(map[string]bool)
		visited []string
	)

	addEdge := func(from, arrow, to string) {
		if from == to || seen[from+"-->"+to] || seen[from+arrow+to] {
			return
		}
		seen[from+arrow+to] = true
		edges = append(edges, fmt.Sprintf("    %s %s %s\n", from, arrow, to))
	}

	var previous string
	for _, m := range log {
		if len(m.Path) == 0 {
			continue
		}
		bot, _ := m.Bot()

		var parent string
		for i, segment := range m.Path {
			safeID := sanitizeMermaidID(strings.Join(m.Path[:i+1], "/"))
			n, ok := byID[safeID]
			if !ok {
				n = &node{id: safeID, label: label(segment)}
				n.opener, n.closer = shape(i, false, bot)
				byID[safeID] = n
				nodes = append(nodes, n)
			}
			if i == len(m.Path)-1 {
				if opener, closer := shape(i, true, bot); opener != "[" {
					n.opener, n.closer = opener, closer
				}
			}
			if parent != "" {
				addEdge(parent, "-->", safeID)
			}
			parent = safeID
		}

		if previous != "" {
			addEdge(previous, "-.->", parent)
		}
		previous = parent
		visited = append(visited, parent)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", n.id, n.opener, n.label, n.closer))
	}
	for _, e := range edges {
		sb.WriteString(e)
	}

	if len(visited) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		for _, id := range visited {
			if !styled[id] {
				styled[id] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		sb.WriteString(fmt.Sprintf("    class %s current;\n", visited[len(visited)-1]))
	}

	return sb.String()
}

func shape(depth int, leaf bool, bot domain.BotMessage) (string, string) {
	switch {
	case leaf && hasFormFields(bot.Elements):
		return "[[", "]]"
	case leaf && hasEnabledControls(bot):
		return "[/", "/]"
	case depth == 0:
		return "((", "))"
	}
	return "[", "]"
}

func hasEnabledControls(bot domain.BotMessage) bool {
	for _, c := range bot.Controls() {
		if !c.Control().Disabled {
			return true
		}
	}
	return false
}

func hasFormFields(elements []domain.Element) bool {
	for _, el := range elements {
		switch el.(type) {
		case domain.Input, domain.FreeText:
			return true
		}
	}
	return false
}

func label(segment string) string {
	return strings.ReplaceAll(segment, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "\"", "_")
	return s
}
