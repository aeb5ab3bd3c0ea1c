package herospec

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTable_Resolve(t *testing.T) {
	table := NewTable(map[int]string{
		7:   "Frostfire",
		200: "Sunfury",
	})

	tests := []struct {
		name      string
		talentIDs []int
		expected  *string
	}{
		{
			name:      "first match by position, not by smallest id",
			talentIDs: []int{100, 7},
			expected:  ptr("Frostfire"),
		},
		{
			name:      "earlier listed id wins",
			talentIDs: []int{200, 7},
			expected:  ptr("Sunfury"),
		},
		{
			name:      "no match yields nil",
			talentIDs: []int{1, 2, 3},
			expected:  nil,
		},
		{
			name:      "empty list yields nil",
			talentIDs: nil,
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Resolve(tt.talentIDs)
			switch {
			case got == nil && tt.expected == nil:
			case got == nil || tt.expected == nil:
				t.Errorf("Resolve(%v) = %v, want %v", tt.talentIDs, deref(got), deref(tt.expected))
			case *got != *tt.expected:
				t.Errorf("Resolve(%v) = %q, want %q", tt.talentIDs, *got, *tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero_talents_map.json")
	content := `{"7": "Frostfire", "200": "Sunfury", "not-a-number": "Ignored"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table := Load(path)
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (non-numeric key dropped)", table.Len())
	}

	got := table.Resolve([]int{7})
	if got == nil || *got != "Frostfire" {
		t.Errorf("Resolve([7]) = %v, want Frostfire", deref(got))
	}
}

// A missing or malformed table must soft-fail to an empty table: harvesting
// never blocks on hero-spec data.
func TestLoad_SoftFail(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
	}{
		{name: "missing file", missing: true},
		{name: "malformed json", content: `{"7": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hero_talents_map.json")
			if !tt.missing {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatalf("write fixture: %v", err)
				}
			}

			table := Load(path)
			if table.Len() != 0 {
				t.Errorf("Len() = %d, want 0", table.Len())
			}
			if got := table.Resolve([]int{7}); got != nil {
				t.Errorf("Resolve on empty table = %q, want nil", *got)
			}
		})
	}
}

func ptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
