package transcript

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"i led the team", "I led the team."},
		{"we shipped on time.", "We shipped on time."},
		{"really?", "Really?"},
		{"  done!  ", "Done!"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInterimReplacesWholesale(t *testing.T) {
	b := NewBuilder()
	b.Interim("i led")
	b.Interim("i led the")
	b.Interim("i led the team")

	if got := b.Draft(); got != "i led the team" {
		t.Errorf("Draft() = %q, want latest interim only", got)
	}
	if got := b.Text(); got != "" {
		t.Errorf("Text() = %q, interim must never be persisted", got)
	}
}

func TestFinalAppendsAndClearsInterim(t *testing.T) {
	b := NewBuilder()
	b.Interim("i led the")
	seg := b.Final("i led the team through a difficult merger")
	if seg != "I led the team through a difficult merger." {
		t.Errorf("unexpected normalized segment: %q", seg)
	}

	b.Interim("then we")
	if got := b.Draft(); got != "I led the team through a difficult merger. then we" {
		t.Errorf("Draft() = %q", got)
	}
	if got := b.Text(); got != "I led the team through a difficult merger." {
		t.Errorf("Text() = %q", got)
	}

	b.Final("then we delivered ahead of schedule")
	want := "I led the team through a difficult merger. Then we delivered ahead of schedule."
	if got := b.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got := b.Draft(); got != want {
		t.Errorf("Draft() = %q, interim should be cleared after Final", got)
	}
}

func TestSeedRestoresPersistedSegments(t *testing.T) {
	b := NewBuilder()
	b.Seed([]string{"First segment", "second segment"})
	if got := b.Text(); got != "First segment. Second segment." {
		t.Errorf("Text() = %q", got)
	}
}

func TestEmptyFinalIsDropped(t *testing.T) {
	b := NewBuilder()
	b.Interim("pending words")
	if seg := b.Final("   "); seg != "" {
		t.Errorf("empty final should return empty, got %q", seg)
	}
	if got := b.Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
	if got := b.Draft(); got != "" {
		t.Errorf("Draft() = %q, interim should be cleared even for empty final", got)
	}
}
