package a11y

import "testing"

const sampleTree = `<?xml version="1.0"?>
<desktop-frame xmlns:attr="https://accessibility.ubuntu.example.org/ns/attributes">
  <panel name="toolbar">
    <push-button name="Address and search bar" attr:keyshortcuts="Ctrl+L"/>
    <push-button name="New Tab" attr:keyshortcuts="Ctrl+T"/>
  </panel>
</desktop-frame>`

func TestParseAndExtractXML(t *testing.T) {
	shortcuts, err := ParseAndExtract(sampleTree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shortcuts) != 2 {
		t.Fatalf("got %d shortcuts, want 2", len(shortcuts))
	}
	found := map[string]string{}
	for _, s := range shortcuts {
		found[s.Name] = s.Command
	}
	if found["Address and search bar"] != "ctrl+l" {
		t.Errorf("address bar command = %q, want ctrl+l", found["Address and search bar"])
	}
	if found["New Tab"] != "ctrl+t" {
		t.Errorf("new tab command = %q, want ctrl+t", found["New Tab"])
	}
}

func TestParseAndExtractTooSmall(t *testing.T) {
	if _, err := ParseAndExtract("<a/>"); err != ErrTreeTooSmall {
		t.Fatalf("expected ErrTreeTooSmall, got %v", err)
	}
}

func TestParseAndExtractRegexFallback(t *testing.T) {
	malformed := `<frame><item name="Reload" keyshortcuts="Ctrl+R"` // unterminated, intentionally malformed
	shortcuts, err := ParseAndExtract(malformed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shortcuts) != 1 || shortcuts[0].Command != "ctrl+r" {
		t.Fatalf("regex fallback failed: %+v", shortcuts)
	}
}
