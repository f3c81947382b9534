package descriptor

import "testing"

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		raw      string
		wantID   string
		wantURL  string
		wantFail bool
	}{
		{raw: "https://github.com/acme/widget", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "https://github.com/acme/widget.git", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "git+https://github.com/acme/widget.git", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "git://github.com/acme/widget.git", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "ssh://git@github.com/acme/widget.git", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "git@github.com:acme/widget.git", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "github:acme/widget", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "gitlab:acme/widget", wantID: "acme/widget", wantURL: "https://gitlab.com/acme/widget"},
		{raw: "acme/widget", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "https://GitHub.com/acme/widget/", wantID: "acme/widget", wantURL: "https://github.com/acme/widget"},
		{raw: "", wantFail: true},
		{raw: "widget", wantFail: true},
		{raw: "https://github.com/acme", wantFail: true},
		{raw: "https://github.com/acme/widget/tree/main", wantFail: true},
		{raw: "ftp://github.com/acme/widget", wantFail: true},
		{raw: "sourceforge:acme/widget", wantFail: true},
		{raw: "https:///acme/widget", wantFail: true},
	}

	for _, tt := range tests {
		ref, err := ParseRepositoryURL(tt.raw)
		if tt.wantFail {
			if err == nil {
				t.Errorf("ParseRepositoryURL(%q) = %+v, want error", tt.raw, ref)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepositoryURL(%q) failed: %v", tt.raw, err)
			continue
		}
		if got := ref.Identifier(); got != tt.wantID {
			t.Errorf("ParseRepositoryURL(%q).Identifier() = %q, want %q", tt.raw, got, tt.wantID)
		}
		if got := ref.URL(); got != tt.wantURL {
			t.Errorf("ParseRepositoryURL(%q).URL() = %q, want %q", tt.raw, got, tt.wantURL)
		}
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, id := range []string{"acme/widget", "a-b/c.d_e"} {
		if !ValidIdentifier(id) {
			t.Errorf("ValidIdentifier(%q) = false, want true", id)
		}
	}
	for _, id := range []string{"", "acme", "acme/widget/extra", "acme/wid get"} {
		if ValidIdentifier(id) {
			t.Errorf("ValidIdentifier(%q) = true, want false", id)
		}
	}
}
