package storage

import "testing"

func TestResolveKey(t *testing.T) {
	const base = "https://files.taproom.test"
	cases := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"public url", base + "/events/e1/flyer-full-1.jpg", "events/e1/flyer-full-1.jpg", true},
		{"path style", "https://acct.r2.cloudflarestorage.com/taproom/applications/a1/resume.pdf", "applications/a1/resume.pdf", true},
		{"other bucket", "https://acct.r2.cloudflarestorage.com/other/x.jpg", "", false},
		{"bare base", base + "/", "", false},
		{"empty", "  ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveKey(base, "taproom", tc.raw)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	if got := FlyerKey("e1", "thumb", "1714560000"); got != "events/e1/flyer-thumb-1714560000.jpg" {
		t.Fatalf("unexpected flyer key %q", got)
	}
	if got := ResumeKey("a1"); got != "applications/a1/resume.pdf" {
		t.Fatalf("unexpected resume key %q", got)
	}
	if cacheControlFor(ResumeKey("a1")) != "private, no-store" {
		t.Fatal("resumes must not be cached publicly")
	}
}
