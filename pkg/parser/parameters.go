package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gilchrisn/busplan/pkg/models"
)

// ReadParameters parses a parameters file against g: the bus count on the
// first line, the bus size on the second, then one rowdy group per line
// written as a list of quoted labels, e.g. ['3', '7']. Empty lists are
// skipped; labels missing from g are an error.
func ReadParameters(r io.Reader, g *models.Graph) (models.Capacity, []models.RowdyGroup, error) {
	var capacity models.Capacity
	var groups []models.RowdyGroup

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch lineNo {
		case 1, 2:
			n, err := strconv.Atoi(line)
			if err != nil {
				return capacity, nil, fmt.Errorf("parameters line %d: %w", lineNo, err)
			}
			if lineNo == 1 {
				capacity.NumBuses = n
			} else {
				capacity.BusSize = n
			}
			continue
		}

		if line == "" {
			continue
		}
		labels, err := ParseLabels(line)
		if err != nil {
			return capacity, nil, fmt.Errorf("parameters line %d: %w", lineNo, err)
		}
		if len(labels) == 0 {
			continue
		}

		members := make([]int, 0, len(labels))
		for _, label := range labels {
			idx, ok := g.IndexOf(label)
			if !ok {
				return capacity, nil, fmt.Errorf("parameters line %d: unknown node %q", lineNo, label)
			}
			members = append(members, idx)
		}
		groups = append(groups, models.NewRowdyGroup(len(groups), members...))
	}

	if err := scanner.Err(); err != nil {
		return capacity, nil, err
	}
	if lineNo < 2 {
		return capacity, nil, fmt.Errorf("parameters: expected bus count and bus size, got %d lines", lineNo)
	}
	return capacity, groups, nil
}

// WriteParameters writes capacity and groups in the ReadParameters layout
func WriteParameters(w io.Writer, g *models.Graph, capacity models.Capacity, groups []models.RowdyGroup) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, capacity.NumBuses)
	fmt.Fprintln(bw, capacity.BusSize)
	for _, rg := range groups {
		fmt.Fprintln(bw, FormatLabels(rg.Labels(g)))
	}
	return bw.Flush()
}

// ParseLabels parses a bracketed list of single- or double-quoted labels
func ParseLabels(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return nil, fmt.Errorf("malformed list %q", line)
	}
	body := line[1 : len(line)-1]

	var labels []string
	i := 0
	for {
		for i < len(body) && (body[i] == ' ' || body[i] == ',') {
			i++
		}
		if i >= len(body) {
			return labels, nil
		}

		quote := body[i]
		if quote != '\'' && quote != '"' {
			// bare token, up to the next comma
			end := strings.IndexByte(body[i:], ',')
			if end < 0 {
				end = len(body) - i
			}
			labels = append(labels, strings.TrimSpace(body[i:i+end]))
			i += end
			continue
		}

		var sb strings.Builder
		i++
		for {
			if i >= len(body) {
				return nil, fmt.Errorf("unterminated label in %q", line)
			}
			c := body[i]
			if c == '\\' && i+1 < len(body) {
				sb.WriteByte(body[i+1])
				i += 2
				continue
			}
			i++
			if c == quote {
				break
			}
			sb.WriteByte(c)
		}
		labels = append(labels, sb.String())
	}
}

// FormatLabels renders labels as a bracketed list of quoted labels, the
// inverse of ParseLabels
func FormatLabels(labels []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, label := range labels {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteLabel(label))
	}
	sb.WriteByte(']')
	return sb.String()
}

func quoteLabel(label string) string {
	label = strings.ReplaceAll(label, `\`, `\\`)
	if strings.Contains(label, "'") && !strings.Contains(label, `"`) {
		return `"` + label + `"`
	}
	return "'" + strings.ReplaceAll(label, "'", `\'`) + "'"
}
