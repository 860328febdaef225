package plan

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// runSplitRe splits a paragraph into candidate entries.
var runSplitRe = regexp.MustCompile(`[\n;]`)

// rules is what differs between the workout and nutrition extractors.
type rules interface {
	// headingSection classifies heading or bold-run text.
	headingSection(text string) (string, bool)
	// lineSection classifies a plain line, which must look like a bare header.
	lineSection(text string) (string, bool)
	// labelSection classifies a label leading an entry line ("Warm-up: ...").
	labelSection(text string) (string, bool)
	// match turns a cleaned line into an entry.
	match(text string) (Entry, bool)
}

type workoutRules struct{}

func (workoutRules) headingSection(text string) (string, bool) {
	l, ok := classifySection(text)
	return l.String(), ok
}

func (workoutRules) lineSection(text string) (string, bool) {
	l, ok := looksLikeSectionHeader(text)
	return l.String(), ok
}

func (workoutRules) labelSection(text string) (string, bool) {
	l, ok := leadingSectionLabel(text)
	return l.String(), ok
}

func (workoutRules) match(text string) (Entry, bool) { return matchWorkout(text) }

type mealRules struct{}

func (mealRules) headingSection(text string) (string, bool) { return mealSection(text) }
func (mealRules) lineSection(text string) (string, bool)    { return mealHeaderLine(text) }
func (mealRules) match(text string) (Entry, bool)           { return matchMeal(text) }

// Meal names lead their own lines ("Breakfast: oats"), so a leading label is
// part of the entry.
func (mealRules) labelSection(string) (string, bool) { return "", false }

// walker scans a document in order, tracking the current section and
// collecting entries.
type walker struct {
	opts    Options
	rules   rules
	section string
	entries []Entry
}

func (w *walker) walk(n *html.Node) {
	switch {
	case isSkipped(n):
	case n.Type == html.TextNode:
		w.runs(n.Data)
	case headingLevel(n) > 0:
		w.heading(n)
	case isList(n):
		w.list(n)
	case n.Type == html.ElementNode && n.DataAtom == atom.Tr:
		w.row(n)
	default:
		w.walkChildren(n)
	}
}

// walkChildren groups consecutive inline children (text, <strong>, <a>, <br>)
// into one run so "<strong>Squats</strong>: 4 x 8" is read as a single line.
func (w *walker) walkChildren(n *html.Node) {
	var inline []*html.Node
	flush := func() {
		if len(inline) > 0 {
			w.inline(inline)
			inline = nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isSkipped(c) {
			continue
		}
		if c.Type == html.ElementNode && (isBlock(c) || hasBlockDescendant(c)) {
			flush()
			w.walk(c)
			continue
		}
		inline = append(inline, c)
	}
	flush()
}

func (w *walker) heading(n *html.Node) {
	text := collapseSpace(textContent(n, false))
	if s, ok := w.rules.headingSection(text); ok {
		w.section = s
	}
}

func (w *walker) inline(nodes []*html.Node) {
	if label, rest, ok := leadingBold(nodes); ok {
		if s, ok := w.rules.labelSection(cleanLine(label)); ok {
			w.section = s
			w.runs(afterLabel(textOfNodes(rest)))
			return
		}
	}
	text := textOfNodes(nodes)
	if isBoldOnly(nodes) {
		t := cleanLine(text)
		if len(t) <= w.opts.MaxHeaderLength {
			if s, ok := w.rules.headingSection(t); ok {
				w.section = s
				return
			}
			// A short bold run with no numbers is a plain heading.
			if !containsDigit(t) {
				return
			}
		}
	}
	w.runs(text)
}

// afterLabel drops the separator left between a bold label and its entry.
func afterLabel(text string) string {
	return strings.TrimLeft(strings.TrimSpace(text), ":-–— ")
}

func (w *walker) runs(text string) {
	for _, run := range runSplitRe.Split(text, -1) {
		w.line(run)
	}
}

func (w *walker) line(text string) {
	t := cleanLine(text)
	if t == "" {
		return
	}
	// "Warm-up: Jumping jacks" names the section and an entry; "Main: 30 min"
	// is only a header with its time budget.
	if label, rest, ok := strings.Cut(t, ":"); ok && len(label) <= w.opts.MaxHeaderLength && !isDurationAnnotation(rest) {
		if s, ok := w.rules.labelSection(label); ok {
			w.section = s
			w.line(rest)
			return
		}
	}
	if len(t) <= w.opts.MaxHeaderLength {
		if s, ok := w.rules.lineSection(t); ok {
			w.section = s
			return
		}
	}
	if len(t) < w.opts.MinTextLength || len(t) > w.opts.MaxRunLength {
		return
	}
	e, ok := w.rules.match(t)
	if !ok {
		return
	}
	e.Section = w.section
	w.entries = append(w.entries, e)
}

func (w *walker) list(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.DataAtom == atom.Li:
			w.listItem(c)
		case c.Type == html.ElementNode:
			w.walk(c)
		case c.Type == html.TextNode:
			w.runs(c.Data)
		}
	}
}

// listItem reads an item's own text as one line, then extracts any nested
// lists independently.
func (w *walker) listItem(li *html.Node) {
	var own []*html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if !isList(c) {
			own = append(own, c)
		}
	}
	text := collapseSpace(textContent(li, true))
	if text != "" {
		handled := false
		if isBoldOnly(own) && len(text) <= w.opts.MaxHeaderLength {
			if s, ok := w.rules.headingSection(cleanLine(text)); ok {
				w.section = s
				handled = true
			}
		} else if label, rest, ok := leadingBold(own); ok {
			if s, ok := w.rules.labelSection(cleanLine(label)); ok {
				w.section = s
				w.line(afterLabel(textOfNodes(rest)))
				handled = true
			}
		}
		if !handled {
			w.line(text)
		}
	}
	for _, l := range nestedLists(li) {
		w.list(l)
	}
}

func nestedLists(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isList(c) {
			out = append(out, c)
		} else if c.Type == html.ElementNode {
			out = append(out, nestedLists(c)...)
		}
	}
	return out
}

// row reads a table row as "first cell: remaining cells". Header rows only
// matter when they name a section.
func (w *walker) row(tr *html.Node) {
	var cells []string
	header := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom == atom.Td {
			header = false
		}
		if t := collapseSpace(textContent(c, false)); t != "" {
			cells = append(cells, t)
		}
	}
	if len(cells) == 0 {
		return
	}
	text := strings.Join(cells, " ")
	if header {
		if s, ok := w.rules.headingSection(text); ok {
			w.section = s
		}
		return
	}
	if len(cells) > 1 {
		text = cells[0] + ": " + strings.Join(cells[1:], ", ")
	}
	w.line(text)
}
