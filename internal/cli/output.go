package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeResult(w io.Writer, format string, result map[string]any, text func(map[string]any) string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprintln(w, text(result))
	return err
}

func formatOutcome(m map[string]any) string {
	return fmt.Sprintf("%v: %v (streak %v)", m["habit_id"], m["outcome"], m["streak"])
}

func formatHabit(m map[string]any) string {
	s := fmt.Sprintf("%v [%v]\n  streak: %v (longest %v)\n  completed: %v of %v days",
		m["title"], m["habit_id"], m["streak"], m["longest_streak"], m["completed_days"], m["window_days"])
	if last, ok := m["last_completed_on"]; ok {
		s += fmt.Sprintf("\n  last completed: %v", last)
	}
	return s
}
