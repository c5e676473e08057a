package services

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "Skin Care", want: "skin-care"},
		{name: "strips punctuation", in: "K-Beauty: Toners & Mists!", want: "k-beauty-toners-&-mists"},
		{name: "collapses whitespace", in: "  Hair   \t Care  ", want: "hair-care"},
		{name: "removes accents", in: "Crème Brûlée", want: "creme-brulee"},
		{name: "strips quotes and at signs", in: `"Night" @Home Masks`, want: "night-home-masks"},
		{name: "empty", in: "", want: ""},
		{name: "punctuation only", in: "*+~.()'\"!:@", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Skin Care", "Crème Brûlée", "K-Beauty: Toners!", "already-a-slug"}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Fatalf("Slugify not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
