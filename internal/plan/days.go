package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	// isoDateRe matches: 2025-03-19
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

	// monthDayYearRe matches: March 19, 2025, Mar 19th 2025, Sept. 3, 2025
	monthDayYearRe = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)

	// dayMonthYearRe matches: 19 March 2025, 3rd Sep 2025
	dayMonthYearRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)\.?,?\s+(\d{4})\b`)

	// slashDateRe matches: 3/19/2025
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	// dayNumberRe matches: Day 3, day #12
	dayNumberRe = regexp.MustCompile(`(?i)\bday\s*#?\s*(\d{1,3})\b`)
)

// dateFamily extracts year, month and day from one match of re.
type dateFamily struct {
	re  *regexp.Regexp
	ymd func(m []string) (y, mo, d int)
}

// dateFamilies is tried in priority order; a heading may hold several
// candidate substrings and the first family with a valid calendar date wins.
var dateFamilies = []dateFamily{
	{isoDateRe, func(m []string) (int, int, int) { return atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
	{monthDayYearRe, func(m []string) (int, int, int) { return atoi(m[3]), monthNumber(m[1]), atoi(m[2]) }},
	{dayMonthYearRe, func(m []string) (int, int, int) { return atoi(m[3]), monthNumber(m[2]), atoi(m[1]) }},
	{slashDateRe, func(m []string) (int, int, int) { return atoi(m[3]), atoi(m[1]), atoi(m[2]) }},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var monthByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

func monthNumber(name string) int {
	return int(monthByPrefix[strings.ToLower(name[:3])])
}

// validDate builds a UTC date, rejecting values time.Date would normalize
// (2025-02-30 becoming March 2nd).
func validDate(y, mo, d int) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

// dayHeading holds what a day heading says about its day.
type dayHeading struct {
	id     string
	date   *time.Time
	number int
}

// parseDayHeading reads a date or a "Day N" token out of heading text.
func parseDayHeading(text string) (dayHeading, bool) {
	var h dayHeading
	if m := dayNumberRe.FindStringSubmatch(text); m != nil {
		h.number = atoi(m[1])
	}
	for _, f := range dateFamilies {
		for _, m := range f.re.FindAllStringSubmatch(text, -1) {
			if t, ok := validDate(f.ymd(m)); ok {
				h.id = t.Format(time.DateOnly)
				h.date = &t
				return h, true
			}
		}
	}
	if h.number > 0 {
		h.id = fmt.Sprintf("day-%d", h.number)
		return h, true
	}
	return dayHeading{}, false
}

// isDayHeadingNode reports whether n is an h1-h4 naming a day.
func isDayHeadingNode(n *html.Node) bool {
	if l := headingLevel(n); l == 0 || l > 4 {
		return false
	}
	_, ok := parseDayHeading(collapseSpace(textContent(n, false)))
	return ok
}

func containsDayHeading(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isDayHeadingNode(c) || containsDayHeading(c) {
			return true
		}
	}
	return false
}

// daySegments finds every day heading in document order. A segment's content
// is the heading's following siblings up to the next heading of equal or
// higher level, a sibling holding another day heading, or the end of the
// parent. Same-level section headings ("Warm-up") stay inside the day.
func daySegments(doc *html.Node) []DaySegment {
	var segs []DaySegment
	seen := map[string]int{}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isSkipped(c) {
				continue
			}
			if isDayHeadingNode(c) {
				title := collapseSpace(textContent(c, false))
				h, _ := parseDayHeading(title)
				seen[h.id]++
				id := h.id
				if seen[h.id] > 1 {
					id = fmt.Sprintf("%s-%d", h.id, seen[h.id])
				}
				segs = append(segs, DaySegment{
					ID:     id,
					Title:  title,
					Date:   h.date,
					Number: h.number,
					HTML:   renderNodes(dayContent(c)),
				})
				continue
			}
			visit(c)
		}
	}
	visit(doc)
	return segs
}

func dayContent(h *html.Node) []*html.Node {
	level := headingLevel(h)
	var out []*html.Node
	for s := h.NextSibling; s != nil; s = s.NextSibling {
		if l := headingLevel(s); l > 0 && l <= level {
			if isDayHeadingNode(s) || l < level {
				break
			}
			if _, ok := classifySection(collapseSpace(textContent(s, false))); !ok {
				break
			}
		}
		if containsDayHeading(s) {
			break
		}
		out = append(out, s)
	}
	return out
}

// mealMarker is a heading or bold line introducing a meal group.
type mealMarker struct {
	node    *html.Node
	keyword string
	title   string
}

// mealMarkerOf recognizes headings and short header-like paragraphs that
// name a meal type.
func mealMarkerOf(n *html.Node, maxLen int) (mealMarker, bool) {
	if n.Type != html.ElementNode {
		return mealMarker{}, false
	}
	level := headingLevel(n)
	if level == 0 && n.DataAtom != atom.P && n.DataAtom != atom.Div {
		return mealMarker{}, false
	}
	if level == 0 && hasBlockDescendant(n) {
		return mealMarker{}, false
	}
	title := cleanLine(textContent(n, false))
	if title == "" || len(title) > maxLen {
		return mealMarker{}, false
	}
	if level > 0 || isBoldOnly(children(n)) {
		if m := mealKeywordRe.FindStringSubmatch(title); m != nil {
			return mealMarker{node: n, keyword: strings.ToLower(mealLabel(m[1])), title: title}, true
		}
		return mealMarker{}, false
	}
	if label, ok := mealHeaderLine(title); ok {
		return mealMarker{node: n, keyword: strings.ToLower(label), title: title}, true
	}
	return mealMarker{}, false
}

// mealSegments groups content under meal-type markers into one pseudo-day
// per keyword, in order of first appearance.
func mealSegments(doc *html.Node, maxLen int) []DaySegment {
	var markers []mealMarker
	isMarker := map[*html.Node]bool{}
	var find func(n *html.Node)
	find = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isSkipped(c) {
				continue
			}
			if m, ok := mealMarkerOf(c, maxLen); ok {
				markers = append(markers, m)
				isMarker[c] = true
				continue
			}
			find(c)
		}
	}
	find(doc)
	if len(markers) == 0 {
		return nil
	}

	var containsMarker func(n *html.Node) bool
	containsMarker = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isMarker[c] || containsMarker(c) {
				return true
			}
		}
		return false
	}

	var segs []DaySegment
	index := map[string]int{}
	for _, m := range markers {
		var content []*html.Node
		for s := m.node.NextSibling; s != nil; s = s.NextSibling {
			if isMarker[s] || containsMarker(s) {
				break
			}
			content = append(content, s)
		}
		markup := renderNodes(content)
		if i, ok := index[m.keyword]; ok {
			if markup != "" {
				segs[i].HTML = strings.TrimSpace(segs[i].HTML + "\n" + markup)
			}
			continue
		}
		index[m.keyword] = len(segs)
		segs = append(segs, DaySegment{ID: m.keyword, Title: m.title, HTML: markup})
	}
	return segs
}

// mealGroupSection returns the meal label a pseudo-day's entries default to.
func mealGroupSection(seg DaySegment) string {
	if seg.Date != nil || seg.Number != 0 {
		return ""
	}
	label, ok := mealHeaderLine(seg.ID)
	if !ok || strings.ToLower(label) != seg.ID {
		return ""
	}
	return label
}
