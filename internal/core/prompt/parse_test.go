package prompt

import (
	"reflect"
	"testing"
)

func TestParseFieldResponseCheckbox(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"strict json", `["A", "B"]`, []string{"A", "B"}},
		{"json with noise items", `["A", 2, "B"]`, []string{"A", "B"}},
		{"quoted substrings", `The applicable ones are "Alpha" and "Beta".`, []string{"Alpha", "Beta"}},
		{"comma split", "A, B", []string{"A", "B"}},
		{"newline split", "- First option\n- Second option", []string{"First option", "Second option"}},
		{"bullet chars stripped", "• One\n* Two", []string{"One", "Two"}},
		{"no delimiters no brackets", "Alpha", []string{}},
		{"empty answer", "   ", []string{}},
		{"sentinel answer", "Not specified in the documents", []string{}},
		{"empty json array", `[]`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, items := ParseFieldResponse(tc.raw, true)
			if !reflect.DeepEqual(items, tc.want) {
				t.Fatalf("ParseFieldResponse(%q) = %v, want %v", tc.raw, items, tc.want)
			}
		})
	}
}

func TestParseFieldResponseText(t *testing.T) {
	answer, items := ParseFieldResponse("  The provider is Acme GmbH.  ", false)
	if answer != "The provider is Acme GmbH." || items != nil {
		t.Fatalf("unexpected result: %q %v", answer, items)
	}

	answer, _ = ParseFieldResponse("This information is not specified in the documents.", false)
	if answer != "" {
		t.Fatalf("sentinel answer must map to empty string, got %q", answer)
	}
}

func TestCheckboxChainPriority(t *testing.T) {
	// A valid JSON array that also contains commas must use the strict
	// parse, not the comma fallback.
	_, items := ParseFieldResponse(`["A, with comma", "B"]`, true)
	want := []string{"A, with comma", "B"}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("json parse must win over comma split, got %v", items)
	}
}
