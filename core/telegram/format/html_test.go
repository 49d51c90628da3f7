package format

import "testing"

func TestCaption(t *testing.T) {
	tests := []struct {
		title, body, want string
	}{
		{"Title", "Body", "<b>Title</b>\n\nBody"},
		{"Title", "", "<b>Title</b>"},
		{"", "Body", "Body"},
	}
	for _, tc := range tests {
		if got := Caption(tc.title, tc.body); got != tc.want {
			t.Errorf("Caption(%q, %q) = %q, want %q", tc.title, tc.body, got, tc.want)
		}
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML(`<b>&`); got != "&lt;b&gt;&amp;" {
		t.Errorf("EscapeHTML = %q", got)
	}
}

func TestCode(t *testing.T) {
	if got := Code("<x>"); got != "<code>&lt;x&gt;</code>" {
		t.Errorf("Code = %q", got)
	}
}
