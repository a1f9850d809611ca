package launcher

import (
	"os"
	"path/filepath"
	"testing"
)

func testIndex(entries ...Entry) *Index {
	return &Index{entries: entries}
}

func TestFindExactNameShortCircuits(t *testing.T) {
	idx := testIndex(
		Entry{ID: "org.mozilla.firefox", DisplayName: "Firefox", Exec: "firefox %u"},
		Entry{ID: "firefox-nightly", DisplayName: "Firefox Nightly", Exec: "firefox-nightly %u"},
	)
	e, ok := idx.Find("firefox")
	if !ok {
		t.Fatal("expected a match")
	}
	if e.DisplayName != "Firefox" {
		t.Fatalf("matched %q, want Firefox", e.DisplayName)
	}
}

func TestFindFuzzyMatchesKeywords(t *testing.T) {
	idx := testIndex(
		Entry{ID: "org.gnome.Nautilus", DisplayName: "Files", GenericName: "File Manager", Keywords: []string{"folder", "manager", "explore", "disk"}, Exec: "nautilus"},
		Entry{ID: "gimp", DisplayName: "GNU Image Manipulation Program", Exec: "gimp-2.10 %U"},
	)
	e, ok := idx.Find("file manager")
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	if e.ID != "org.gnome.Nautilus" {
		t.Fatalf("matched %q, want org.gnome.Nautilus", e.ID)
	}
}

func TestFindRejectsUnrelatedQuery(t *testing.T) {
	idx := testIndex(
		Entry{ID: "gimp", DisplayName: "GNU Image Manipulation Program", Exec: "gimp"},
	)
	if _, ok := idx.Find("zzzzqqqq"); ok {
		t.Fatal("unrelated query must not match")
	}
	if _, ok := idx.Find(""); ok {
		t.Fatal("empty query must not match")
	}
}

func TestEveryIndexedAppIsFindableByDisplayName(t *testing.T) {
	entries := []Entry{
		{ID: "firefox", DisplayName: "Firefox", Exec: "firefox %u"},
		{ID: "org.gnome.Terminal", DisplayName: "Terminal", Exec: "gnome-terminal"},
		{ID: "code", DisplayName: "Visual Studio Code", Exec: "code %F"},
	}
	idx := testIndex(entries...)
	for _, want := range entries {
		got, ok := idx.Find(want.DisplayName)
		if !ok {
			t.Fatalf("Find(%q) found nothing", want.DisplayName)
		}
		if got.ID != want.ID {
			t.Fatalf("Find(%q) = %q, want %q", want.DisplayName, got.ID, want.ID)
		}
	}
}

func TestStripFieldCodes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"firefox %u", "firefox"},
		{"gimp-2.10 %U", "gimp-2.10"},
		{"code --new-window %F", "code --new-window"},
		{"foo %i %c %k bar", "foo bar"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := StripFieldCodes(c.in); got != c.want {
			t.Fatalf("StripFieldCodes(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExecBinaryName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"firefox %u", "firefox"},
		{"/usr/bin/gnome-terminal", "gnome-terminal"},
		{"env GDK_BACKEND=x11 inkscape %F", "inkscape"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ExecBinaryName(c.in); got != c.want {
			t.Fatalf("ExecBinaryName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNameMatches(t *testing.T) {
	cases := []struct {
		process, binary string
		want            bool
	}{
		{"firefox", "firefox", true},
		{"firefox-bin", "firefox", true},
		{"firefox", "firefox-esr", true}, // substring either direction
		{"Firefox", "firefox", true},
		{"gedit", "firefox", false},
		{"", "firefox", false},
	}
	for _, c := range cases {
		if got := nameMatches(c.process, c.binary); got != c.want {
			t.Fatalf("nameMatches(%q, %q) = %v, want %v", c.process, c.binary, got, c.want)
		}
	}
}

func TestParseDesktopFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firefox.desktop")
	content := `[Desktop Entry]
Type=Application
Name=Firefox
GenericName=Web Browser
Exec=firefox %u
Keywords=web;browser;internet;
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := parseDesktopFile(path)
	if err != nil {
		t.Fatalf("parseDesktopFile: %v", err)
	}
	if e.ID != "firefox" || e.DisplayName != "Firefox" || e.GenericName != "Web Browser" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.Keywords) != 3 {
		t.Fatalf("keywords = %v, want 3 entries", e.Keywords)
	}
}

func TestParseDesktopFileSkipsNoDisplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hidden.desktop")
	content := `[Desktop Entry]
Type=Application
Name=Hidden
Exec=hidden
NoDisplay=true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := parseDesktopFile(path); err == nil {
		t.Fatal("NoDisplay=true entries must be skipped")
	}
}

func TestParseDesktopFileSkipsMissingExec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noexec.desktop")
	content := `[Desktop Entry]
Type=Application
Name=Broken
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := parseDesktopFile(path); err == nil {
		t.Fatal("entries without Exec must be skipped")
	}
}
