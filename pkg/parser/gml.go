package parser

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/gilchrisn/busplan/pkg/models"
)

// gmlPair is one key/value entry of a GML list. Value is a string, an int64,
// a float64 or a []gmlPair for nested lists.
type gmlPair struct {
	key   string
	value interface{}
}

type gmlToken struct {
	kind byte // 'k' key, 's' string, 'n' number, '[' or ']'
	text string
	line int
}

// ReadGML reads an undirected graph from a GML graph block of node and edge lists.
// Nodes are indexed in file order and named by their label, or by their id
// when no label is present. Self-loops and repeated edges are skipped.
func ReadGML(r io.Reader) (*models.Graph, error) {
	tokens, err := tokenizeGML(r)
	if err != nil {
		return nil, err
	}

	pos := 0
	root, err := parseGMLList(tokens, &pos, false)
	if err != nil {
		return nil, err
	}

	var body []gmlPair
	for _, p := range root {
		if p.key == "graph" {
			if list, ok := p.value.([]gmlPair); ok {
				body = list
				break
			}
		}
	}
	if body == nil {
		return nil, fmt.Errorf("gml: no graph block")
	}

	g := models.NewGraph(0)
	ids := make(map[string]int)
	for _, p := range body {
		if p.key != "node" {
			continue
		}
		fields, ok := p.value.([]gmlPair)
		if !ok {
			return nil, fmt.Errorf("gml: node is not a list")
		}
		id, ok := gmlField(fields, "id")
		if !ok {
			return nil, fmt.Errorf("gml: node without id")
		}
		label, ok := gmlField(fields, "label")
		if !ok {
			label = id
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("gml: duplicate node id %s", id)
		}
		if _, exists := g.IndexOf(label); exists {
			return nil, fmt.Errorf("gml: duplicate node label %q", label)
		}
		ids[id] = g.AddNode(label)
	}

	for _, p := range body {
		if p.key != "edge" {
			continue
		}
		fields, ok := p.value.([]gmlPair)
		if !ok {
			return nil, fmt.Errorf("gml: edge is not a list")
		}
		source, okS := gmlField(fields, "source")
		target, okT := gmlField(fields, "target")
		if !okS || !okT {
			return nil, fmt.Errorf("gml: edge without source or target")
		}
		u, okU := ids[source]
		v, okV := ids[target]
		if !okU || !okV {
			return nil, fmt.Errorf("gml: edge %s-%s references unknown node", source, target)
		}
		if u == v || g.HasEdge(u, v) {
			continue
		}
		if err := g.AddEdge(u, v); err != nil {
			return nil, fmt.Errorf("gml: %w", err)
		}
	}

	return g, nil
}

// WriteGML writes g as a GML graph block with two-space indentation
func WriteGML(w io.Writer, g *models.Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph [")
	for i := 0; i < g.NumNodes; i++ {
		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", i)
		fmt.Fprintf(bw, "    label %s\n", quoteGML(g.Label(i)))
		fmt.Fprintln(bw, "  ]")
	}
	for _, e := range g.Edges() {
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", e[0])
		fmt.Fprintf(bw, "    target %d\n", e[1])
		fmt.Fprintln(bw, "  ]")
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}

func quoteGML(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '&' || r > unicode.MaxASCII || !unicode.IsPrint(r) {
			fmt.Fprintf(&sb, "&#%d;", r)
			continue
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// gmlField returns the scalar value of key rendered as a string
func gmlField(fields []gmlPair, key string) (string, bool) {
	for _, f := range fields {
		if f.key != key {
			continue
		}
		switch v := f.value.(type) {
		case string:
			return v, true
		case int64:
			return strconv.FormatInt(v, 10), true
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64), true
		}
	}
	return "", false
}

func parseGMLList(tokens []gmlToken, pos *int, nested bool) ([]gmlPair, error) {
	var list []gmlPair
	for *pos < len(tokens) {
		tok := tokens[*pos]
		if tok.kind == ']' {
			if !nested {
				return nil, fmt.Errorf("gml: line %d: unexpected ]", tok.line)
			}
			*pos++
			return list, nil
		}
		if tok.kind != 'k' {
			return nil, fmt.Errorf("gml: line %d: expected key, got %q", tok.line, tok.text)
		}
		*pos++
		if *pos >= len(tokens) {
			return nil, fmt.Errorf("gml: line %d: key %s has no value", tok.line, tok.text)
		}

		val := tokens[*pos]
		*pos++
		switch val.kind {
		case '[':
			sub, err := parseGMLList(tokens, pos, true)
			if err != nil {
				return nil, err
			}
			list = append(list, gmlPair{key: tok.text, value: sub})
		case 's':
			list = append(list, gmlPair{key: tok.text, value: val.text})
		case 'n':
			if n, err := strconv.ParseInt(val.text, 10, 64); err == nil {
				list = append(list, gmlPair{key: tok.text, value: n})
				continue
			}
			f, err := strconv.ParseFloat(val.text, 64)
			if err != nil {
				return nil, fmt.Errorf("gml: line %d: bad number %q", val.line, val.text)
			}
			list = append(list, gmlPair{key: tok.text, value: f})
		default:
			return nil, fmt.Errorf("gml: line %d: unexpected %q after key %s", val.line, val.text, tok.text)
		}
	}
	if nested {
		return nil, fmt.Errorf("gml: unterminated list")
	}
	return list, nil
}

func tokenizeGML(r io.Reader) ([]gmlToken, error) {
	var tokens []gmlToken
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		i := 0
		for i < len(line) {
			c := line[i]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				i++
			case c == '#':
				i = len(line)
			case c == '[' || c == ']':
				tokens = append(tokens, gmlToken{kind: c, text: string(c), line: lineNo})
				i++
			case c == '"':
				end := strings.IndexByte(line[i+1:], '"')
				if end < 0 {
					return nil, fmt.Errorf("gml: line %d: unterminated string", lineNo)
				}
				text := html.UnescapeString(line[i+1 : i+1+end])
				tokens = append(tokens, gmlToken{kind: 's', text: text, line: lineNo})
				i += end + 2
			default:
				start := i
				for i < len(line) && !strings.ContainsRune(" \t\r[]\"", rune(line[i])) {
					i++
				}
				word := line[start:i]
				kind := byte('k')
				if first := word[0]; first == '-' || first == '+' || first == '.' || (first >= '0' && first <= '9') {
					kind = 'n'
				}
				tokens = append(tokens, gmlToken{kind: kind, text: word, line: lineNo})
			}
		}
	}
	return tokens, scanner.Err()
}
