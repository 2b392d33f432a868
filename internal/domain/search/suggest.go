package search

// MedSuggestion holds per-attribute suggestion lists for one medication name,
// each list ordered by descending frequency with ties kept in the order the
// value was first recorded.
type MedSuggestion struct {
	Dose     []string `json:"dose_data"`
	Form     []string `json:"form_data"`
	Schedule []string `json:"schedule_data"`
	Timing   []string `json:"timing_data"`
	Duration []string `json:"duration_data"`
}

type valueCounter struct {
	order  []string
	counts map[string]int
}

func newValueCounter() *valueCounter {
	return &valueCounter{counts: make(map[string]int)}
}

func (vc *valueCounter) add(v string) {
	if _, seen := vc.counts[v]; !seen {
		vc.order = append(vc.order, v)
	}
	vc.counts[v]++
}

// ranked returns distinct values by descending count. Insertion sort over the
// first-encountered order keeps equal counts stable.
func (vc *valueCounter) ranked() []string {
	out := make([]string, len(vc.order))
	copy(out, vc.order)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && vc.counts[out[j]] > vc.counts[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type medCounters struct {
	dose     *valueCounter
	form     *valueCounter
	schedule *valueCounter
	timing   *valueCounter
	duration *valueCounter
}

// BuildSuggestionIndex folds the user's medication lines into the per-name
// suggestion structure the prescription form preloads.
func BuildSuggestionIndex(lines []MedicationRow) map[string]MedSuggestion {
	names := []string{}
	byName := make(map[string]*medCounters)

	for _, l := range lines {
		mc, ok := byName[l.MedName]
		if !ok {
			mc = &medCounters{
				dose:     newValueCounter(),
				form:     newValueCounter(),
				schedule: newValueCounter(),
				timing:   newValueCounter(),
				duration: newValueCounter(),
			}
			byName[l.MedName] = mc
			names = append(names, l.MedName)
		}
		mc.dose.add(l.Dose)
		mc.form.add(l.Form)
		mc.schedule.add(l.Schedule)
		mc.timing.add(l.Timing)
		mc.duration.add(l.Duration)
	}

	index := make(map[string]MedSuggestion, len(names))
	for _, name := range names {
		mc := byName[name]
		index[name] = MedSuggestion{
			Dose:     mc.dose.ranked(),
			Form:     mc.form.ranked(),
			Schedule: mc.schedule.ranked(),
			Timing:   mc.timing.ranked(),
			Duration: mc.duration.ranked(),
		}
	}
	return index
}
