package format

import "strings"

// Heading is an entry of the document outline.
type Heading struct {
	Line     int
	Level    int
	Title    string
	Children []Heading
}

// Outline builds a two-level table of contents from annotated lines.
// Level 1 and 2 headings form the top level; level 3 headings are folded
// under the closest preceding level 2 heading (or kept at the top level when
// there is none).
func Outline(lines []string, annotations []LineAnnotation) []Heading {
	var out []Heading
	parent := -1

	for _, a := range annotations {
		if !a.Kind.IsHeading() || a.LineIndex >= len(lines) {
			continue
		}
		h := Heading{
			Line:  a.LineIndex,
			Level: a.Kind.HeadingLevel(),
			Title: strings.TrimSpace(string([]rune(lines[a.LineIndex])[a.MarkerLen:])),
		}
		switch h.Level {
		case 3:
			if parent >= 0 {
				out[parent].Children = append(out[parent].Children, h)
				continue
			}
			out = append(out, h)
		case 2:
			out = append(out, h)
			parent = len(out) - 1
		default:
			out = append(out, h)
			parent = -1
		}
	}
	return out
}
