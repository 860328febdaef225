// Package plan extracts structured workout and nutrition entries from the
// loosely structured HTML plans coaches paste in.
//
// Extraction never fails: malformed markup is parsed leniently, text that
// matches no pattern is dropped, and empty input yields an empty list.
// A Parser holds only its Options and is safe for concurrent use.
package plan

import "strings"

// Parser extracts entries using a fixed set of Options.
type Parser struct {
	opts Options
}

// New returns a Parser. Zero fields in opts take their DefaultOptions value.
func New(opts Options) *Parser {
	return &Parser{opts: opts.withDefaults()}
}

var defaultParser = New(DefaultOptions())

// Options returns the effective thresholds.
func (p *Parser) Options() Options { return p.opts }

// ExtractEntries parses a workout plan with the default options.
func ExtractEntries(src string) WorkoutResult { return defaultParser.ExtractEntries(src) }

// ExtractMeals parses a nutrition plan with the default options.
func ExtractMeals(src string) NutritionResult { return defaultParser.ExtractMeals(src) }

// SegmentDays splits src at day headings with the default options.
func SegmentDays(src string) []DaySegment { return defaultParser.SegmentDays(src) }

// SegmentMeals splits a nutrition plan at day headings, or at meal headings
// when there are none, with the default options.
func SegmentMeals(src string) []DaySegment { return defaultParser.SegmentMeals(src) }

// ParseWorkoutPlan segments and extracts a workout plan with the default options.
func ParseWorkoutPlan(src string) []DayPlan { return defaultParser.ParseWorkoutPlan(src) }

// ParseNutritionPlan segments and extracts a nutrition plan with the default options.
func ParseNutritionPlan(src string) []DayPlan { return defaultParser.ParseNutritionPlan(src) }

// ExtractEntries returns the exercises in src, each tagged with a section.
// When the document names no sections, entries are assigned by position;
// every canonical section is then guaranteed at least one entry.
func (p *Parser) ExtractEntries(src string) WorkoutResult {
	entries := p.extract(src, workoutRules{}, "")
	if len(entries) == 0 {
		return WorkoutResult{Exercises: []Entry{}}
	}
	if labeled(entries) {
		for i := range entries {
			if entries[i].Section == "" {
				entries[i].Section = string(SectionOther)
			}
		}
	} else {
		entries = AssignByPosition(entries, p.opts.Proportions)
	}
	return WorkoutResult{Exercises: FillGaps(entries)}
}

// ExtractMeals returns the meal items in src, each tagged with the meal
// heading it appeared under, or "Other".
func (p *Parser) ExtractMeals(src string) NutritionResult {
	return NutritionResult{Meals: p.extractMeals(src, "")}
}

func (p *Parser) extractMeals(src, section string) []Entry {
	meals := p.extract(src, mealRules{}, section)
	if len(meals) == 0 {
		return []Entry{}
	}
	for i := range meals {
		if meals[i].Section == "" {
			meals[i].Section = string(SectionOther)
		}
	}
	return meals
}

// SegmentDays splits src at h1-h4 headings naming a date or a day number.
// Without any, the whole document is returned as one segment.
func (p *Parser) SegmentDays(src string) []DaySegment {
	src = truncateInput(src, p.opts.MaxInputBytes)
	if strings.TrimSpace(src) == "" {
		return []DaySegment{}
	}
	if segs := daySegments(parseDocument(src)); len(segs) > 0 {
		return segs
	}
	return []DaySegment{{HTML: src}}
}

// SegmentMeals is SegmentDays with a fallback: a plan without day headings
// is grouped into one pseudo-day per meal type.
func (p *Parser) SegmentMeals(src string) []DaySegment {
	src = truncateInput(src, p.opts.MaxInputBytes)
	if strings.TrimSpace(src) == "" {
		return []DaySegment{}
	}
	doc := parseDocument(src)
	if segs := daySegments(doc); len(segs) > 0 {
		return segs
	}
	if segs := mealSegments(doc, p.opts.MaxHeaderLength); len(segs) > 0 {
		return segs
	}
	return []DaySegment{{HTML: src}}
}

// ParseWorkoutPlan extracts entries per day.
func (p *Parser) ParseWorkoutPlan(src string) []DayPlan {
	segs := p.SegmentDays(src)
	out := make([]DayPlan, 0, len(segs))
	for _, s := range segs {
		out = append(out, DayPlan{DaySegment: s, Entries: p.ExtractEntries(s.HTML).Exercises})
	}
	return out
}

// ParseNutritionPlan extracts meals per day or per meal group.
func (p *Parser) ParseNutritionPlan(src string) []DayPlan {
	segs := p.SegmentMeals(src)
	out := make([]DayPlan, 0, len(segs))
	for _, s := range segs {
		out = append(out, DayPlan{DaySegment: s, Entries: p.extractMeals(s.HTML, mealGroupSection(s))})
	}
	return out
}

func (p *Parser) extract(src string, r rules, section string) []Entry {
	src = truncateInput(src, p.opts.MaxInputBytes)
	if strings.TrimSpace(src) == "" {
		return nil
	}
	w := &walker{opts: p.opts, rules: r, section: section}
	w.walk(parseDocument(src))
	return w.entries
}

func labeled(entries []Entry) bool {
	for _, e := range entries {
		if e.Section != "" {
			return true
		}
	}
	return false
}
