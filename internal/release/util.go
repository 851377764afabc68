package release

import "strings"

// splitTool splits a command prefix into binary and leading arguments.
func splitTool(prefix string) (string, []string) {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// firstLine returns the first non-empty line of tool output, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
