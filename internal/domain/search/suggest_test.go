package search

import (
	"reflect"
	"testing"
)

func TestBuildSuggestionIndex_FrequencyOrder(t *testing.T) {
	lines := []MedicationRow{
		{MedName: "Paracetamol", Dose: "5mg"},
		{MedName: "Paracetamol", Dose: "5mg"},
		{MedName: "Paracetamol", Dose: "10mg"},
	}
	index := BuildSuggestionIndex(lines)

	got := index["Paracetamol"].Dose
	want := []string{"5mg", "10mg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dose order: got %v, want %v", got, want)
	}
}

func TestBuildSuggestionIndex_TiesKeepFirstEncounteredOrder(t *testing.T) {
	lines := []MedicationRow{
		{MedName: "Ibuprofen", Timing: "morning"},
		{MedName: "Ibuprofen", Timing: "night"},
		{MedName: "Ibuprofen", Timing: "night"},
		{MedName: "Ibuprofen", Timing: "noon"},
	}
	index := BuildSuggestionIndex(lines)

	got := index["Ibuprofen"].Timing
	want := []string{"night", "morning", "noon"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("timing order: got %v, want %v", got, want)
	}
}

func TestBuildSuggestionIndex_GroupsByName(t *testing.T) {
	lines := []MedicationRow{
		{MedName: "Paracetamol", Form: "tablet"},
		{MedName: "Ibuprofen", Form: "syrup"},
		{MedName: "Paracetamol", Form: "syrup"},
	}
	index := BuildSuggestionIndex(lines)

	if len(index) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(index))
	}
	if got := index["Paracetamol"].Form; !reflect.DeepEqual(got, []string{"tablet", "syrup"}) {
		t.Errorf("Paracetamol forms: %v", got)
	}
	if got := index["Ibuprofen"].Form; !reflect.DeepEqual(got, []string{"syrup"}) {
		t.Errorf("Ibuprofen forms: %v", got)
	}
}

func TestBuildSuggestionIndex_Empty(t *testing.T) {
	index := BuildSuggestionIndex(nil)
	if len(index) != 0 {
		t.Errorf("expected empty index, got %v", index)
	}
}
