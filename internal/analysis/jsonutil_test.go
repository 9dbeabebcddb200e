package analysis

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                            `{"a":1}`,
		"```json\n{\"a\":1}\n```":            `{"a":1}`,
		`Sure! Here you go: {"a":[1,2,]} ok`: `{"a":[1,2]}`,
		`["x","y"]`:                          `["x","y"]`,
		`no json here`:                       ``,
	}
	for in, want := range cases {
		if got := extractJSON(in); got != want {
			t.Errorf("extractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeListMissingKey(t *testing.T) {
	if _, err := decodeList[string](`{"other":[]}`, "replies"); err == nil {
		t.Error("expected error for missing key")
	}
}
