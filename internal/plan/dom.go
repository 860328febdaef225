package plan

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseDocument parses src leniently. html.Parse follows the HTML5 error
// recovery rules, so malformed markup still yields a tree; if the reader
// itself fails the input is rebuilt as one paragraph per line.
func parseDocument(src string) *html.Node {
	doc, err := html.Parse(strings.NewReader(src))
	if err == nil {
		return doc
	}
	return plainTextDocument(src)
}

func plainTextDocument(src string) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	for _, line := range strings.Split(src, "\n") {
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		p.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		doc.AppendChild(p)
	}
	return doc
}

// truncateInput caps src at max bytes without splitting a UTF-8 sequence.
func truncateInput(src string, max int) string {
	if len(src) <= max {
		return src
	}
	return strings.ToValidUTF8(src[:max], "")
}

var blockAtoms = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Details: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Html: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Summary: true, atom.Table: true,
	atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true,
	atom.Tr: true, atom.Ul: true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

func isList(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Ul || n.DataAtom == atom.Ol)
}

func isSkipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return n.Type == html.CommentNode
	}
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Title:
		return true
	}
	return false
}

// headingLevel returns 1-6 for h1-h6 and 0 otherwise.
func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) || hasBlockDescendant(c) {
			return true
		}
	}
	return false
}

// textContent flattens n to text. <br> and block boundaries become newlines.
// Lists are left out when skipLists is set so a list item's own text can be
// read without its nested sub-list.
func textContent(n *html.Node, skipLists bool) string {
	var b strings.Builder
	writeText(&b, n, skipLists)
	return b.String()
}

func textOfNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n, false)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node, skipLists bool) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
		return
	case isSkipped(n):
		return
	case n.Type == html.ElementNode && n.DataAtom == atom.Br:
		b.WriteByte('\n')
		return
	case skipLists && isList(n):
		return
	}
	block := isBlock(n)
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, skipLists)
	}
	if block {
		b.WriteByte('\n')
	}
}

// isBoldOnly reports whether the non-whitespace content of nodes sits
// entirely inside <strong>/<b> runs.
func isBoldOnly(nodes []*html.Node) bool {
	bold := false
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return false
			}
		case n.Type == html.ElementNode && (n.DataAtom == atom.Strong || n.DataAtom == atom.B):
			if strings.TrimSpace(textContent(n, false)) != "" {
				bold = true
			}
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
		case n.Type == html.ElementNode:
			if !isBoldOnly(children(n)) {
				return false
			}
			bold = true
		}
	}
	return bold
}

// leadingBold splits off a <b>/<strong> child that opens a mixed run, returning
// its text and the nodes after it.
func leadingBold(nodes []*html.Node) (label string, rest []*html.Node, ok bool) {
	for i, n := range nodes {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		if n.Type != html.ElementNode || (n.DataAtom != atom.Strong && n.DataAtom != atom.B) {
			return "", nil, false
		}
		rest = nodes[i+1:]
		if strings.TrimSpace(textOfNodes(rest)) == "" {
			return "", nil, false
		}
		return textContent(n, false), rest, true
	}
	return "", nil, false
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// collapseSpace trims and folds every whitespace run to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// renderNodes serializes nodes back to markup.
func renderNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			b.WriteString(html.EscapeString(textContent(n, false)))
		}
	}
	return strings.TrimSpace(b.String())
}
