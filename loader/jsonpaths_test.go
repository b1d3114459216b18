package loader

import "testing"

func TestParseJSONPaths(t *testing.T) {
	got, err := ParseJSONPaths([]byte(`{"jsonpaths": ["$['artist']", "$[\"auth\"]", "$.firstName"]}`))
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"artist", "auth", "firstName"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected: %v; got: %v", expected, got)
		}
	}
	for _, bad := range []string{`{"jsonpaths": []}`, `{"jsonpaths": ["$.a.b"]}`, `not json`} {
		if _, err := ParseJSONPaths([]byte(bad)); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}
