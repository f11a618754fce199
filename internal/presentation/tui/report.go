package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/lattice/pkg/domain"
)

// maxValueWidth truncates result previews in the report table.
const maxValueWidth = 60

// Report renders a run record as markdown: a summary line, one table row
// per node in graph order, then the run error if any. g may be nil, in
// which case nodes are listed by id.
func Report(rec *domain.RunRecord, g *domain.Graph) string {
	var sb strings.Builder
	title := rec.GraphID
	if title == "" {
		title = "run"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Status:** %s %s  \n", statusIcon(rec.Status), rec.Status)
	fmt.Fprintf(&sb, "**Run:** `%s`  \n", rec.RunID)
	if !rec.EndTime.IsZero() && !rec.StartTime.IsZero() {
		fmt.Fprintf(&sb, "**Duration:** %s\n", rec.EndTime.Sub(rec.StartTime))
	}
	sb.WriteString("\n| Node | Status | Result |\n|---|---|---|\n")

	for _, id := range nodeOrder(rec, g) {
		status := rec.NodeStatuses[id]
		detail := ""
		if info := rec.NodeErrors[id]; info != nil {
			detail = fmt.Sprintf("%s: %s", info.Kind, info.Message)
		} else if v, ok := rec.NodeResults[id]; ok {
			detail = preview(v)
		}
		fmt.Fprintf(&sb, "| `%s` | %s %s | %s |\n", id, nodeIcon(status), status, escapeCell(detail))
	}

	if rec.Error != nil {
		fmt.Fprintf(&sb, "\n> **%s:** %s\n", rec.Error.Kind, rec.Error.Message)
	}
	return sb.String()
}

// StatusLine is a one-line colored summary for terminals.
func StatusLine(rec *domain.RunRecord) string {
	p := termenv.EnvColorProfile()
	color := "#22c55e"
	switch rec.Status {
	case domain.RunFailed:
		color = "#ef4444"
	case domain.RunCancelled:
		color = "#f59e0b"
	}
	counts := map[domain.NodeStatus]int{}
	for _, s := range rec.NodeStatuses {
		counts[s]++
	}
	status := termenv.String(string(rec.Status)).Foreground(p.Color(color)).Bold()
	return fmt.Sprintf("%s run %s: %d succeeded, %d failed, %d skipped",
		status, rec.RunID, counts[domain.NodeSucceeded], counts[domain.NodeFailed], counts[domain.NodeSkipped])
}

func nodeOrder(rec *domain.RunRecord, g *domain.Graph) []string {
	var ids []string
	if g != nil {
		for _, n := range g.Nodes {
			ids = append(ids, n.ID)
		}
		return ids
	}
	for id := range rec.NodeStatuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func preview(v any) string {
	if out, ok := v.(domain.OutputValue); ok {
		v = out.Value
	}
	var s string
	if str, ok := v.(string); ok {
		s = str
	} else if data, err := json.Marshal(v); err == nil {
		s = string(data)
	} else {
		s = fmt.Sprint(v)
	}
	if r := []rune(s); len(r) > maxValueWidth {
		s = string(r[:maxValueWidth-1]) + "…"
	}
	return "`" + s + "`"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func statusIcon(s domain.RunStatus) string {
	switch s {
	case domain.RunSucceeded:
		return "✅"
	case domain.RunFailed:
		return "❌"
	case domain.RunCancelled:
		return "⏹️"
	default:
		return "⏳"
	}
}

func nodeIcon(s domain.NodeStatus) string {
	switch s {
	case domain.NodeSucceeded:
		return "✅"
	case domain.NodeFailed:
		return "❌"
	case domain.NodeSkipped:
		return "⏭️"
	default:
		return "⏳"
	}
}
