package sanitize

import "testing"

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"Ada":                    "Ada",
		"  Ada \t Lovelace  ":    "Ada Lovelace",
		"<b>Ada</b>":             "Ada",
		"&lt;i&gt;Ada&lt;/i&gt;": "Ada",
		"Tom &amp; Jerry":        "Tom & Jerry",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q): expected %q, got %q", in, want, got)
		}
	}
}
