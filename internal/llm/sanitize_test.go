package llm

import "testing"

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StripCodeFence(c.in); got != c.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCanonicalizeJSON(t *testing.T) {
	out, err := CanonicalizeJSON([]byte("{\n  \"b\": 2,\n  \"a\": 1\n}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"a":1,"b":2}` {
		t.Errorf("got %s", out)
	}
}

func TestCanonicalizeJSONRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "not json", `{"a":`} {
		if _, err := CanonicalizeJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
