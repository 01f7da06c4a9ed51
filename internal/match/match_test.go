package match

import (
	"testing"

	"github.com/guarzo/cardcomps/internal/model"
)

func titled(titles ...string) []model.Listing {
	listings := make([]model.Listing, 0, len(titles))
	for i, title := range titles {
		listings = append(listings, model.Listing{
			ID:    string(rune('a' + i)),
			Title: title,
		})
	}
	return listings
}

func titlesOf(listings []model.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Title)
	}
	return out
}

func TestStrictGradePreFilter(t *testing.T) {
	listings := titled(
		"Charizard PSA 10 Base Set #4",
		"Charizard PSA 9 Base Set #4",
		"Charizard PSA10 Base Set #4",
		"Charizard PSA 100 Base Set #4",
	)
	q := model.Query{CardName: "charizard", Grade: "PSA 10", CardNumber: "4"}

	got := Strict(listings, q)
	if len(got) != 2 {
		t.Fatalf("matched %d listings %v, want the two genuine PSA 10s", len(got), titlesOf(got))
	}
	for _, l := range got {
		if l.Title == "Charizard PSA 9 Base Set #4" {
			t.Error("PSA 9 title must never satisfy a PSA 10 query")
		}
		if l.Title == "Charizard PSA 100 Base Set #4" {
			t.Error("grade number must match as a whole token")
		}
	}
}

func TestStrictGradeWhitespaceInsensitive(t *testing.T) {
	listings := titled("Pikachu PSA 10", "Pikachu PSA10")
	for _, grade := range []string{"PSA10", "PSA 10", "psa 10"} {
		got := Strict(listings, model.Query{Grade: grade})
		if len(got) != 2 {
			t.Errorf("grade %q matched %d of 2 equivalent titles", grade, len(got))
		}
	}
}

func TestStrictSubstringContainment(t *testing.T) {
	listings := titled(
		"Charizard Base Set #4 Holo",
		"Blastoise Base Set #2 Holo",
		"Charizard Jungle #4",
	)
	q := model.Query{CardName: "Charizard", SetName: "Base Set", CardNumber: "4"}

	got := Strict(listings, q)
	if len(got) != 1 || got[0].Title != "Charizard Base Set #4 Holo" {
		t.Errorf("got %v, want only the Base Set Charizard", titlesOf(got))
	}
}

func TestStrictEmptyFieldsMatchEverything(t *testing.T) {
	listings := titled("Anything at all", "Something else")
	got := Strict(listings, model.Query{})
	if len(got) != 2 {
		t.Errorf("empty query matched %d of 2", len(got))
	}
}

func TestStrictUnrecognizedGradeSkipsPreFilter(t *testing.T) {
	listings := titled("Charizard Gem Mint #4")
	got := Strict(listings, model.Query{CardName: "charizard", Grade: "Gem Mint"})
	if len(got) != 1 {
		t.Error("a grade without a grading-service prefix must not pre-filter")
	}
}

func TestFuzzyMatchesAnywhereInTitle(t *testing.T) {
	listings := titled(
		"2024 Pokemon Charizard 4 Holo Rare",
		"Yu-Gi-Oh Blue Eyes White Dragon",
	)
	q := model.Query{CardName: "Charizard", CardNumber: "4"}

	got := Fuzzy(listings, q, 0)
	if len(got) != 1 {
		t.Fatalf("got %v, want just the Charizard", titlesOf(got))
	}
	if got[0].Title != "2024 Pokemon Charizard 4 Holo Rare" {
		t.Errorf("matched %q", got[0].Title)
	}
}

func TestFuzzyOrdersByDescendingQuality(t *testing.T) {
	listings := titled(
		"Pokemon Charlzard 4 Holo", // one letter off
		"Pokemon Charizard 4 Holo", // exact
	)
	q := model.Query{CardName: "Charizard", CardNumber: "4"}

	got := Fuzzy(listings, q, 0)
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Title != "Pokemon Charizard 4 Holo" {
		t.Errorf("exact match should rank first, got %q", got[0].Title)
	}
}

func TestFuzzyEmptyQuery(t *testing.T) {
	if got := Fuzzy(titled("Charizard"), model.Query{}, 0); got != nil {
		t.Errorf("empty query should match nothing, got %v", titlesOf(got))
	}
}
