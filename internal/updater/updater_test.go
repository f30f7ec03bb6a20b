package updater

import (
	"strings"
	"testing"
)

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{in: "oliveoi1/clnbrd", wantOwner: "oliveoi1", wantName: "clnbrd"},
		{in: "https://github.com/oliveoi1/clnbrd/", wantOwner: "oliveoi1", wantName: "clnbrd"},
		{in: "clnbrd", wantErr: true},
		{in: "/clnbrd", wantErr: true},
		{in: "a/b/c", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, name, err := splitRepository(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitRepository(%q) error = %v", tt.in, err)
			}
			if owner != tt.wantOwner || name != tt.wantName {
				t.Errorf("splitRepository(%q) = %q, %q", tt.in, owner, name)
			}
		})
	}
}

func TestNewRejectsBadRepository(t *testing.T) {
	if _, err := New("not-a-repo", false); err == nil {
		t.Error("New() accepted a bad repository")
	}
}

func TestStatusRender(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{Status{Current: "1.0.0", Latest: "1.0.0"}, "up to date"},
		{Status{Current: "1.0.0", Latest: "1.1.0", Available: true, URL: "https://example.invalid"}, "1.1.0 is available"},
		{Status{Current: "1.0.0", Latest: "1.1.0", Available: true, Applied: true}, "1.0.0 -> 1.1.0"},
	}
	for _, tt := range tests {
		var sb strings.Builder
		if err := tt.st.Render(&sb); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(sb.String(), tt.want) {
			t.Errorf("Render() = %q, want %q", sb.String(), tt.want)
		}
	}
}
