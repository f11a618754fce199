package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Overlay carries run state to visualize on the graph.
type Overlay struct {
	Statuses map[string]domain.NodeStatus
}

// OverlayFromRecord builds an overlay from a finished or in-flight run.
func OverlayFromRecord(rec *domain.RunRecord) *Overlay {
	if rec == nil {
		return nil
	}
	return &Overlay{Statuses: rec.NodeStatuses}
}

// GenerateMermaid produces a Mermaid flowchart for g.
// Shapes follow the node type:
//   - input: [/Parallelogram/]
//   - output: ([Stadium])
//   - condition: {Rhombus}
//   - capability: [[Subroutine]]
//   - transform and custom types: [Rectangle]
//
// Condition branches are labelled with their handle. When overlay is not
// nil, nodes are styled by status.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeTypeInput:
			opener, closer = "[/", "/]"
		case domain.NodeTypeOutput:
			opener, closer = "([", "])"
		case domain.NodeTypeCondition:
			opener, closer = "{", "}"
		case domain.NodeTypeCapability:
			opener, closer = "[[", "]]"
		}

		text := escapeLabel(node.ID)
		if node.Type != "" {
			text += " <br/> " + escapeLabel(string(node.Type))
		}
		if node.Timeout != "" {
			text += " <br/> ⏱️ " + escapeLabel(node.Timeout)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, text, closer)
	}

	for _, e := range g.Edges {
		arrow := "-->"
		if branch := e.Branch(); branch != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(branch))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if overlay != nil && len(overlay.Statuses) > 0 {
		sb.WriteString("\n    %% Run Status\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef succeeded fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 2,color:#000;\n")
		sb.WriteString("    classDef running fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, node := range g.Nodes {
			class := statusClass(overlay.Statuses[node.ID])
			if class != "" {
				fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(node.ID), class)
			}
		}
	}

	return sb.String()
}

func statusClass(s domain.NodeStatus) string {
	switch s {
	case domain.NodeSucceeded:
		return "succeeded"
	case domain.NodeFailed:
		return "failed"
	case domain.NodeSkipped:
		return "skipped"
	case domain.NodeRunning, domain.NodeQueued:
		return "running"
	default:
		return ""
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
