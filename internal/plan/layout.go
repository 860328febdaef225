package plan

// sectionDefaults holds the entries FillGaps inserts for a missing section.
var sectionDefaults = map[SectionKind][]Entry{
	SectionWarmUp: {
		{Name: "Light cardio", Type: EntryCardio, Duration: "5 minutes"},
		{Name: "Dynamic stretches", Type: EntryOther, Duration: "5 minutes"},
	},
	SectionMain: {
		{Name: "Bodyweight squats", Type: EntryStrength, Sets: 3, Reps: "12"},
		{Name: "Push-ups", Type: EntryStrength, Sets: 3, Reps: "10"},
	},
	SectionAux: {
		{Name: "Plank", Type: EntryOther, Duration: "30 seconds"},
		{Name: "Glute bridges", Type: EntryOther, Description: "2 x 15"},
	},
	SectionCoolDown: {
		{Name: "Static stretches", Type: EntryOther, Duration: "5 minutes"},
		{Name: "Deep breathing", Type: EntryOther, Duration: "2 minutes"},
	},
}

// SectionDefaults returns a copy of the entries FillGaps inserts for each
// missing section.
func SectionDefaults() map[SectionKind][]Entry {
	out := make(map[SectionKind][]Entry, len(sectionDefaults))
	for k, entries := range sectionDefaults {
		out[k] = append([]Entry(nil), entries...)
	}
	return out
}

// AssignByPosition labels an unlabeled entry list by relative position:
// the first share goes to Warm-up, then Main, then Aux, and the rest to
// Cool-down. It returns a new slice.
func AssignByPosition(entries []Entry, p Proportions) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sizes := bucketSizes(len(out), p)
	i := 0
	for b, k := range canonicalSections {
		for j := 0; j < sizes[b]; j++ {
			out[i].Section = string(k)
			i++
		}
	}
	return out
}

// bucketPriority is the order in which buckets are guaranteed an entry when
// the list is too short for every proportion to round up to one.
var bucketPriority = []int{1, 0, 2, 3}

// bucketSizes floors each proportion, hands the remainder to Cool-down and
// then makes sure the first min(n, 4) buckets in bucketPriority are non-empty.
func bucketSizes(n int, p Proportions) [4]int {
	var s [4]int
	if n <= 0 {
		return s
	}
	const eps = 1e-9
	s[0] = int(float64(n)*p.WarmUp + eps)
	s[1] = int(float64(n)*p.Main + eps)
	s[2] = int(float64(n)*p.Aux + eps)
	if over := s[0] + s[1] + s[2] - n; over > 0 {
		s[2] -= min(over, s[2])
	}
	s[3] = n - s[0] - s[1] - s[2]

	want := min(n, len(bucketPriority))
	for i, b := range bucketPriority[:want] {
		if s[b] > 0 {
			continue
		}
		protected := bucketPriority[:i]
		donor := -1
		for j := len(bucketPriority) - 1; j >= 0; j-- {
			d := bucketPriority[j]
			if d == b || s[d] == 0 || s[d] == 1 && contains(protected, d) {
				continue
			}
			if donor < 0 || s[d] > s[donor] {
				donor = d
			}
		}
		if donor < 0 {
			break
		}
		s[donor]--
		s[b]++
	}
	return s
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// FillGaps inserts the section defaults for every canonical section missing from
// a non-empty entry list. Presence is checked by label prefix, so running it
// twice adds nothing.
func FillGaps(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	out := make([]Entry, len(entries))
	copy(out, entries)

	if indexOfSection(out, SectionWarmUp, false) < 0 {
		out = insertAt(out, 0, defaultsFor(SectionWarmUp))
	}
	if indexOfSection(out, SectionMain, false) < 0 {
		out = insertAt(out, indexOfSection(out, SectionWarmUp, true)+1, defaultsFor(SectionMain))
	}
	if indexOfSection(out, SectionAux, false) < 0 {
		i := indexOfSection(out, SectionCoolDown, false)
		if i < 0 {
			i = len(out)
		}
		out = insertAt(out, i, defaultsFor(SectionAux))
	}
	if indexOfSection(out, SectionCoolDown, false) < 0 {
		out = append(out, defaultsFor(SectionCoolDown)...)
	}
	return out
}

// indexOfSection returns the first (or last) index of an entry in section k, or -1.
func indexOfSection(entries []Entry, k SectionKind, last bool) int {
	idx := -1
	for i, e := range entries {
		if sectionKindOf(e.Section) == k {
			if !last {
				return i
			}
			idx = i
		}
	}
	return idx
}

func defaultsFor(k SectionKind) []Entry {
	d := sectionDefaults[k]
	out := make([]Entry, len(d))
	for i, e := range d {
		e.Section = string(k)
		out[i] = e
	}
	return out
}

func insertAt(entries []Entry, i int, add []Entry) []Entry {
	out := make([]Entry, 0, len(entries)+len(add))
	out = append(out, entries[:i]...)
	out = append(out, add...)
	return append(out, entries[i:]...)
}
