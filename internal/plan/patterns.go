package plan

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// numRange matches a count or a range: 8, 8-10, 8 – 10
const numRange = `\d+(?:\s*[-–]\s*\d+)?`

// entryPattern is one step of a pattern chain. build may reject a match
// (implausible name, failed guard), in which case the chain moves on.
type entryPattern struct {
	name  string
	re    *regexp.Regexp
	build func(text string, m []int) (Entry, bool)
}

var (
	// strengthWeightedRe matches: Squats: 4 sets of 8 reps @ 210 lbs, Bench: 3x8-10 at 60kg
	strengthWeightedRe = regexp.MustCompile(`(?i)^(.+?)\s*:\s*(\d+)\s*(?:sets?\s*(?:of|x|×)|x|×)\s*(` + numRange + `)\s*(?:reps?)?\s*(?:@|at)\s*(\d+(?:\.\d+)?\s*(?:lbs?|kgs?|pounds?))`)

	// strengthDashRe matches: Bench Press - 3 sets x 10 reps @ 135
	strengthDashRe = regexp.MustCompile(`(?i)^(.+?)\s+[-–—]\s+(\d+)\s*(?:sets?\s*)?(?:x|×|of)\s*(` + numRange + `)\s*(?:reps?)?(?:\s*(?:@|at)\s*(\d+(?:\.\d+)?(?:\s*(?:lbs?|kgs?|pounds?|%))?))?`)

	// strengthPlainRe matches: Lunges: 3 sets of 12 reps, Rows: 4x10
	strengthPlainRe = regexp.MustCompile(`(?i)^(.+?)\s*:\s*(\d+)\s*(?:sets?\s*(?:of|x|×)|x|×)\s*(` + numRange + `)\s*(?:reps?)?`)

	// strengthShortRe matches: Pull-ups (3 x 8), Dips (3x10-12 reps)
	strengthShortRe = regexp.MustCompile(`(?i)^(.+?)\s*\(\s*(\d+)\s*(?:sets?\s*)?[x×]\s*(` + numRange + `)\s*(?:reps?)?\s*\)`)

	// cardioDistanceRe matches: Run: 6 miles in 54:00, Row 2000m, Jog 5 km in 30 minutes
	cardioDistanceRe = regexp.MustCompile(`(?i)^(run(?:ning)?|jog(?:ging)?|walk(?:ing)?|cycl(?:e|ing)|swim(?:ming)?|row(?:ing)?)\b[^\d]*?(\d+(?:\.\d+)?\s*(?:miles?|mi|kilometers?|km|k|meters?|m|yards?|yds?))\b(?:\s+in\s+(\d+(?::\d{2}){1,2}|\d+\s*(?:minutes?|mins?|hours?|hrs?)))?`)

	// cardioTimedRe matches: Easy jog for 10 minutes, Rowing intervals for 20 minutes, Walk 15 min
	cardioTimedRe = regexp.MustCompile(`(?i)^((?:[a-z]+\s+)?(?:run(?:ning)?|jog(?:ging)?|walk(?:ing)?|cycl(?:e|ing)|bike|biking|swim(?:ming)?|row(?:ing)?)\b.*?)\s+(?:for\s+)?(` + numRange + `\s*(?:minutes?|mins?|seconds?|secs?))\b`)

	// timedRe matches: Jumping jacks: 2 minutes, Plank for 45 seconds
	timedRe = regexp.MustCompile(`(?i)^(.+?)\s*(?::|\bfor\b)\s*(` + numRange + `\s*(?:minutes?|mins?|seconds?|secs?|hours?|hrs?))\b(.*)$`)

	// stretchRe matches: Pigeon pose stretch (hips), Thoracic mobility drill (upper back)
	stretchRe = regexp.MustCompile(`(?i)^(.*?\b(?:stretch\w*|mobility|flexibility)\b.*?)\s*\(([^)]+)\)`)

	// paceRe matches: 9:30/mi pace, pace of 5:10 per km
	paceRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}(?:\s*(?:/|per)\s*(?:mi(?:le)?|km))?)\s*pace|pace\s*(?:of|:|@)?\s*(\d{1,2}:\d{2}(?:\s*(?:/|per)\s*(?:mi(?:le)?|km))?)`)

	// zoneRe matches: Zone 2, zone 3-4
	zoneRe = regexp.MustCompile(`(?i)\bzone\s*(\d(?:\s*[-–]\s*\d)?)\b`)

	// bulletRe matches leading list markers: -, *, •, 1., 2), a.
	bulletRe = regexp.MustCompile(`^\s*(?:[-*•·–]+\s*|\d{1,2}[.)]\s+|[a-zA-Z][.)]\s+)`)
)

// workoutPatterns is evaluated top to bottom; the first pattern whose regexp
// matches and whose builder accepts the match produces the entry.
var workoutPatterns = []entryPattern{
	{name: "strength-weighted", re: strengthWeightedRe, build: buildStrength},
	{name: "strength-dash", re: strengthDashRe, build: buildStrength},
	{name: "strength-plain", re: strengthPlainRe, build: buildStrength},
	{name: "strength-short", re: strengthShortRe, build: buildStrength},
	{name: "cardio-distance", re: cardioDistanceRe, build: buildCardioDistance},
	{name: "cardio-timed", re: cardioTimedRe, build: buildCardioTimed},
	{name: "timed", re: timedRe, build: buildTimed},
	{name: "stretch", re: stretchRe, build: buildStretch},
	{name: "catch-all", re: regexp.MustCompile(`^.+$`), build: buildCatchAll},
}

// matchWorkout runs text through the workout pattern chain.
func matchWorkout(text string) (Entry, bool) {
	return runChain(workoutPatterns, text)
}

func runChain(patterns []entryPattern, text string) (Entry, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		if e, ok := p.build(text, m); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// group returns submatch i of a FindStringSubmatchIndex result, or "".
func group(text string, m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return strings.TrimSpace(text[m[2*i]:m[2*i+1]])
}

func buildStrength(text string, m []int) (Entry, bool) {
	name := cleanName(group(text, m, 1))
	if !plausibleName(name) {
		return Entry{}, false
	}
	sets, err := strconv.Atoi(group(text, m, 2))
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Name:   name,
		Type:   EntryStrength,
		Sets:   sets,
		Reps:   normalizeRange(group(text, m, 3)),
		Weight: group(text, m, 4),
	}, true
}

func buildCardioDistance(text string, m []int) (Entry, bool) {
	// Name is whatever precedes the distance, e.g. "Run" or "Easy run".
	name := cleanName(text[:m[4]])
	if !plausibleName(name) {
		name = cleanName(group(text, m, 1))
	}
	e := Entry{
		Name:     name,
		Type:     EntryCardio,
		Distance: group(text, m, 2),
		Duration: group(text, m, 3),
	}
	addPaceZone(&e, text)
	return e, true
}

func buildCardioTimed(text string, m []int) (Entry, bool) {
	name := cleanName(group(text, m, 1))
	if !plausibleName(name) {
		return Entry{}, false
	}
	e := Entry{
		Name:     name,
		Type:     EntryCardio,
		Duration: normalizeRange(group(text, m, 2)),
	}
	addPaceZone(&e, text)
	return e, true
}

func buildTimed(text string, m []int) (Entry, bool) {
	name := cleanName(group(text, m, 1))
	if !plausibleName(name) || isDurationAnnotation(text) {
		return Entry{}, false
	}
	return Entry{
		Name:        name,
		Type:        EntryOther,
		Duration:    normalizeRange(group(text, m, 2)),
		Description: strings.Trim(group(text, m, 3), " ,.;:-–—()"),
	}, true
}

func buildStretch(text string, m []int) (Entry, bool) {
	name := cleanName(group(text, m, 1))
	if !plausibleName(name) {
		return Entry{}, false
	}
	return Entry{
		Name:        name,
		Type:        EntryOther,
		Description: group(text, m, 2),
	}, true
}

func buildCatchAll(text string, _ []int) (Entry, bool) {
	if !hasLetter(text) || isDurationAnnotation(text) {
		return Entry{}, false
	}
	name, desc := splitLabel(text)
	if !plausibleName(name) {
		return Entry{}, false
	}
	return Entry{Name: name, Type: EntryOther, Description: desc}, true
}

// splitLabel splits "Name: description" at the first colon. When the part
// before the colon is not a usable name (e.g. "6:00 am walk") the whole text
// becomes the name.
func splitLabel(text string) (name, desc string) {
	if i := strings.Index(text, ":"); i > 0 {
		name = cleanName(text[:i])
		if plausibleName(name) {
			return name, strings.TrimSpace(text[i+1:])
		}
	}
	return cleanName(text), ""
}

func addPaceZone(e *Entry, text string) {
	if m := paceRe.FindStringSubmatch(text); m != nil {
		e.Pace = strings.TrimSpace(m[1] + m[2])
	}
	if m := zoneRe.FindStringSubmatch(text); m != nil {
		e.Zone = "Zone " + normalizeRange(m[1])
	}
}

// normalizeRange folds "8 – 10" to "8-10" and leaves everything else alone.
func normalizeRange(s string) string {
	return rangeDashRe.ReplaceAllString(strings.TrimSpace(s), "-")
}

// cleanLine strips list markers and folds whitespace.
func cleanLine(s string) string {
	s = collapseSpace(s)
	return strings.TrimSpace(bulletRe.ReplaceAllString(s, ""))
}

func cleanName(s string) string {
	return strings.Trim(collapseSpace(s), " :-–—,.;")
}

// plausibleName rejects names that are too short, have no letters, or read
// like a section header.
func plausibleName(name string) bool {
	if len(name) < 2 || len(name) > 120 || !hasLetter(name) {
		return false
	}
	if _, ok := looksLikeSectionHeader(name); ok && len(strings.Fields(name)) == 1 {
		return false
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
