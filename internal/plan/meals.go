package plan

import (
	"regexp"
	"strings"
)

var (
	// mealKeywordRe matches the meal-type keywords used for headings and pseudo-days.
	mealKeywordRe = regexp.MustCompile(`(?i)\b(breakfast|lunch|dinner|snacks?)\b`)

	// mealPrefixRe is mealKeywordRe anchored at the start of a line.
	mealPrefixRe = regexp.MustCompile(`(?i)^(breakfast|lunch|dinner|snacks?)\b`)

	// mealNumberRe matches numbered meal headings: Meal 2, meal #3
	mealNumberRe = regexp.MustCompile(`(?i)\bmeal\s*#?\s*(\d{1,2})\b`)

	// mealHeaderRestRe is what may follow a meal keyword on a header line: "Options", "Idea 2"
	mealHeaderRestRe = regexp.MustCompile(`(?i)^(?:options?|ideas?|menu|meal|time)?(?:\s*#?\s*\d{1,2})?$`)

	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

	// quantityRe matches: 150g chicken breast, 2 eggs, 1 cup of oatmeal, 1/2 avocado
	quantityRe = regexp.MustCompile(`(?i)^(\d+(?:[./]\d+)?\s*(?:g|grams?|kg|oz|ounces?|lbs?|cups?|tbsp|tablespoons?|tsp|teaspoons?|slices?|pieces?|ml|l|scoops?|servings?|handfuls?|medium|large|small)?)\s+(?:of\s+)?([a-z].*)$`)

	// mealLabelRe matches: Breakfast bowl: oats, berries and yogurt
	mealLabelRe = regexp.MustCompile(`^([^:]{2,80}?)\s*:\s*(.+)$`)

	// caloriesRe matches: 450 kcal, 300 calories, 250cal
	caloriesRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kcal|cal(?:ories)?)\b`)

	// macro regexps match "30g protein" and "protein: 30g" forms.
	proteinRe = macroRe(`protein`)
	carbsRe   = macroRe(`carb(?:ohydrate)?s?`)
	fatRe     = macroRe(`fats?`)

	// macroSpanRe strips macro annotations out of meal names.
	macroSpanRe = regexp.MustCompile(`(?i)[,(\-–—]?\s*\d+(?:\.\d+)?\s*(?:g\s*(?:of\s+)?(?:protein|carb(?:ohydrate)?s?|fats?)|kcal|cal(?:ories)?)\b\)?`)
)

func macroRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g\s*(?:of\s+)?` + name + `\b|\b` + name + `\s*[:=]?\s*(\d+(?:\.\d+)?)\s*g\b`)
}

var mealPatterns = []entryPattern{
	{name: "meal-quantity", re: quantityRe, build: buildMealQuantity},
	{name: "meal-label", re: mealLabelRe, build: buildMealLabel},
	{name: "meal-catch-all", re: regexp.MustCompile(`^.+$`), build: buildMealCatchAll},
}

// matchMeal runs text through the nutrition pattern chain and then pulls
// calories and macros from anywhere in the text.
func matchMeal(text string) (Entry, bool) {
	e, ok := runChain(mealPatterns, text)
	if !ok {
		return Entry{}, false
	}
	addMacros(&e, text)
	return e, true
}

func buildMealQuantity(text string, m []int) (Entry, bool) {
	name, desc := splitMealName(group(text, m, 2))
	if !plausibleName(name) {
		return Entry{}, false
	}
	return Entry{
		Name:        name,
		Type:        EntryMeal,
		Quantity:    group(text, m, 1),
		Description: desc,
	}, true
}

func buildMealLabel(text string, m []int) (Entry, bool) {
	name := cleanName(stripMacros(group(text, m, 1)))
	if !plausibleName(name) || containsDigit(name) && !hasLetter(name) {
		return Entry{}, false
	}
	return Entry{Name: name, Type: EntryMeal, Description: group(text, m, 2)}, true
}

func buildMealCatchAll(text string, _ []int) (Entry, bool) {
	if !hasLetter(text) || isDurationAnnotation(text) {
		return Entry{}, false
	}
	name, desc := splitMealName(text)
	if !plausibleName(name) {
		return Entry{}, false
	}
	return Entry{Name: name, Type: EntryMeal, Description: desc}, true
}

// splitMealName separates "chicken breast - grilled, with lemon" into name
// and description at the first colon or spaced dash.
func splitMealName(s string) (name, desc string) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{":", " - ", " – ", " — "} {
		if i := strings.Index(s, sep); i > 0 {
			name = cleanName(stripMacros(s[:i]))
			if plausibleName(name) {
				return name, strings.TrimSpace(s[i+len(sep):])
			}
		}
	}
	return cleanName(stripMacros(s)), ""
}

func stripMacros(s string) string {
	s = macroSpanRe.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "(,"))
}

func addMacros(e *Entry, text string) {
	if m := caloriesRe.FindStringSubmatch(text); m != nil {
		e.Calories = m[1] + " kcal"
	}
	e.Protein = macroValue(proteinRe, text)
	e.Carbs = macroValue(carbsRe, text)
	e.Fat = macroValue(fatRe, text)
}

func macroValue(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + m[2] + "g"
}

// mealSection returns the canonical meal label for a heading.
func mealSection(text string) (string, bool) {
	if m := mealKeywordRe.FindStringSubmatch(text); m != nil {
		return mealLabel(m[1]), true
	}
	if m := mealNumberRe.FindStringSubmatch(text); m != nil {
		return "Meal " + m[1], true
	}
	return "", false
}

// mealHeaderLine reports whether a plain line is a meal header such as
// "Breakfast", "Lunch (550 kcal)" or "Dinner options".
func mealHeaderLine(text string) (string, bool) {
	loc := mealPrefixRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", false
	}
	rest := parentheticalRe.ReplaceAllString(text[loc[1]:], " ")
	rest = collapseSpace(strings.Trim(rest, " :-–—,."))
	if !mealHeaderRestRe.MatchString(rest) {
		return "", false
	}
	return mealLabel(text[loc[2]:loc[3]]), true
}

func mealLabel(keyword string) string {
	k := strings.ToLower(keyword)
	k = strings.TrimSuffix(k, "s")
	return strings.ToUpper(k[:1]) + k[1:]
}
