// Package diff renders unified diffs between two versions of a file.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// Unified returns the plain unified diff between oldText and newText,
// or an empty string if they are identical.
func Unified(filename, oldText, newText string) string {
	var b strings.Builder
	writeUnified(&b, filename, oldText, newText, nil)
	return b.String()
}

// Colored writes a git-style colored unified diff to w and reports
// whether the texts differ. Color codes are subject to the global
// color.NoColor switch, so a non-terminal destination gets plain text.
func Colored(w io.Writer, filename, oldText, newText string) bool {
	return writeUnified(w, filename, oldText, newText, defaultPalette)
}

// palette holds the color for each diff line class. A nil palette or a
// nil entry falls back to uncolored output.
type palette struct {
	header *color.Color
	hunk   *color.Color
	del    *color.Color
	add    *color.Color
}

var defaultPalette = &palette{
	header: color.New(color.Bold),
	hunk:   color.New(color.FgCyan),
	del:    color.New(color.FgRed),
	add:    color.New(color.FgGreen),
}

func (p *palette) print(w io.Writer, c *color.Color, s string) {
	if p == nil || c == nil {
		io.WriteString(w, s)
		return
	}
	c.Fprint(w, s)
}

func (p *palette) pick(k opKind) *color.Color {
	if p == nil {
		return nil
	}
	switch k {
	case opDel:
		return p.del
	case opAdd:
		return p.add
	default:
		return nil
	}
}

func writeUnified(w io.Writer, filename, oldText, newText string, pal *palette) bool {
	if oldText == newText {
		return false
	}

	ops := script(toLines(oldText), toLines(newText))
	hunks := group(ops)
	if len(hunks) == 0 {
		return false
	}

	pal.print(w, headerColor(pal), fmt.Sprintf("--- a/%s\n+++ b/%s\n", filename, filename))
	for _, h := range hunks {
		h.write(w, ops, pal)
	}
	return true
}

func headerColor(p *palette) *color.Color {
	if p == nil {
		return nil
	}
	return p.header
}

// toLines splits text into lines that keep their trailing newline. An
// empty string produces zero lines.
func toLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	// SplitAfter leaves an empty trailing element when s ends with \n.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// opKind classifies one line of the edit script.
type opKind int

const (
	opKeep opKind = iota
	opDel         // line exists only in oldText.
	opAdd         // line exists only in newText.
)

// op is one line of the edit script, carrying the text it refers to.
type op struct {
	kind opKind
	text string
}

func (o op) marker() byte {
	switch o.kind {
	case opDel:
		return '-'
	case opAdd:
		return '+'
	default:
		return ' '
	}
}

// script computes a shortest edit script from a to b using the Myers
// diff algorithm, returned in forward order.
func script(a, b []string) []op {
	n := len(a)
	m := len(b)
	total := n + m
	if total == 0 {
		return nil
	}

	// v stores the farthest reaching x per diagonal k = x - y, offset
	// by total to avoid negative indices. trace keeps a snapshot per
	// step for the unwind.
	v := make([]int, 2*total+1)
	trace := make([][]int, 0, total+1)

	for d := 0; d <= total; d++ {
		snap := make([]int, len(v))
		copy(snap, v)
		trace = append(trace, snap)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[k-1+total] < v[k+1+total]) {
				x = v[k+1+total] // move down: an insertion.
			} else {
				x = v[k-1+total] + 1 // move right: a deletion.
			}
			y := x - k

			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[k+total] = x

			if x >= n && y >= m {
				return unwind(trace, a, b, d, total)
			}
		}
	}

	// Unreachable: d = total always suffices.
	return nil
}

// unwind walks the trace backwards from the endpoint and rebuilds the
// edit script front to back.
func unwind(trace [][]int, a, b []string, d, total int) []op {
	x, y := len(a), len(b)

	var ops []op
	push := func(k opKind, text string) { ops = append(ops, op{kind: k, text: text}) }

	for step := d; step > 0; step-- {
		v := trace[step]
		k := x - y

		down := k == -step || (k != step && v[k-1+total] < v[k+1+total])
		prevK := k - 1
		if down {
			prevK = k + 1
		}
		prevX := v[prevK+total]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			push(opKeep, a[x])
		}

		if down {
			y--
			push(opAdd, b[y])
		} else {
			x--
			push(opDel, a[x])
		}
	}

	for x > 0 && y > 0 {
		x--
		y--
		push(opKeep, a[x])
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

// hunk is a half-open op range plus the old/new line offsets at its
// start, precomputed so the header can be emitted directly.
type hunk struct {
	start, end         int // op indices, end exclusive.
	oldStart, newStart int // 0-based line offsets at start.
	oldCount, newCount int
}

// group clusters the changed ops into hunks, padding each with context
// lines and merging hunks whose context would overlap.
func group(ops []op) []hunk {
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	for i, o := range ops {
		oldAt[i+1] = oldAt[i]
		newAt[i+1] = newAt[i]
		if o.kind != opAdd {
			oldAt[i+1]++
		}
		if o.kind != opDel {
			newAt[i+1]++
		}
	}

	var hunks []hunk
	for i := 0; i < len(ops); i++ {
		if ops[i].kind == opKeep {
			continue
		}
		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(ops))

		// Extend over any change whose context reaches back into
		// this hunk.
		for j := i + 1; j < len(ops); j++ {
			if ops[j].kind == opKeep {
				continue
			}
			if j-contextLines > end {
				break
			}
			end = min(j+contextLines+1, len(ops))
			i = j
		}

		hunks = append(hunks, hunk{
			start:    start,
			end:      end,
			oldStart: oldAt[start],
			newStart: newAt[start],
			oldCount: oldAt[end] - oldAt[start],
			newCount: newAt[end] - newAt[start],
		})
	}
	return hunks
}

func (h hunk) write(w io.Writer, ops []op, pal *palette) {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@\n",
		headerPos(h.oldStart, h.oldCount), h.oldCount,
		headerPos(h.newStart, h.newCount), h.newCount)
	pal.print(w, hunkColor(pal), header)

	for _, o := range ops[h.start:h.end] {
		pal.print(w, pal.pick(o.kind), string(o.marker())+withNewline(o.text))
	}
}

func hunkColor(p *palette) *color.Color {
	if p == nil {
		return nil
	}
	return p.hunk
}

// headerPos converts a 0-based offset to the 1-based position unified
// headers use; an empty range keeps the 0-based form, as git prints it.
func headerPos(start, count int) int {
	if count == 0 {
		return start
	}
	return start + 1
}

func withNewline(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}
