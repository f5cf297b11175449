package model

import (
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// =========================================================================
// TIMESTAMP TESTS
// =========================================================================

func TestTimestamp_RoundTripKeepsBrowserFormat(t *testing.T) {
	const raw = `"2024-03-01T09:15:00.123Z"`

	var ts Timestamp
	if err := json.Unmarshal([]byte(raw), &ts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != raw {
		t.Errorf("Marshal() = %s, want %s", out, raw)
	}
}

func TestTimestamp_ZeroIsNull(t *testing.T) {
	out, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "null" {
		t.Errorf("Marshal(zero) = %s, want null", out)
	}

	for _, raw := range []string{`null`, `""`} {
		ts := NewTimestamp(time.Now())
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", raw, err)
		}
		if !ts.IsZero() {
			t.Errorf("Unmarshal(%s) = %v, want zero", raw, ts)
		}
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T09:15:00Z", time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-03-01T10:15:00+01:00", time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-03-01T09:15", time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got.Time, tt.want)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("ParseTimestamp(\"yesterday\") should fail")
	}
}

// =========================================================================
// FOLDER TESTS
// =========================================================================

func TestFolderName(t *testing.T) {
	folders := []Folder{{ID: "f1", Name: "Work"}}

	tests := []struct {
		name     string
		folderID *string
		want     string
	}{
		{"nil reference", nil, UncategorizedFolderName},
		{"empty reference", StringPtr(""), UncategorizedFolderName},
		{"known folder", StringPtr("f1"), "Work"},
		{"dangling reference", StringPtr("gone"), UnknownFolderName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FolderName(folders, tt.folderID); got != tt.want {
				t.Errorf("FolderName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippetClone_DoesNotShareState(t *testing.T) {
	orig := Snippet{ID: "a", Tags: []string{"go"}, FolderID: StringPtr("f1")}
	c := orig.Clone()

	c.Tags[0] = "rust"
	*c.FolderID = "f2"

	if orig.Tags[0] != "go" {
		t.Error("Clone() shares the tag slice")
	}
	if *orig.FolderID != "f1" {
		t.Error("Clone() shares the folder pointer")
	}
}

func TestSnippetClone_TagsNeverNil(t *testing.T) {
	for _, tags := range [][]string{nil, {}} {
		c := Snippet{ID: "a", Tags: tags}.Clone()
		if c.Tags == nil || len(c.Tags) != 0 {
			t.Errorf("Clone() with tags %#v: Tags = %#v, want empty slice", tags, c.Tags)
		}
	}
}

// =========================================================================
// PREFERENCES / PROFILE TESTS
// =========================================================================

func TestMergePreferences_IsKeyWise(t *testing.T) {
	merged := MergePreferences(map[string]any{"fontSize": "large", "custom": 3.0})

	if merged.String(PrefFontSize) != "large" {
		t.Errorf("fontSize = %v, want large", merged[PrefFontSize])
	}
	if v, ok := merged[PrefDarkMode]; !ok || v != false {
		t.Errorf("darkMode = %v (present=%v), want false default", v, ok)
	}
	if !merged.Bool(PrefAutoSave) {
		t.Error("autoSave default lost")
	}
	if merged["custom"] != 3.0 {
		t.Error("unknown stored key dropped")
	}
	if len(merged) != len(DefaultPreferences())+1 {
		t.Errorf("merged has %d keys, want %d", len(merged), len(DefaultPreferences())+1)
	}
}

func TestAccountProfile_Fallbacks(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Account{Username: "ada"}.Profile(now)

	if p.Name != "ada" {
		t.Errorf("Name = %q, want username fallback", p.Name)
	}
	if p.Email != "user@example.com" {
		t.Errorf("Email = %q, want placeholder", p.Email)
	}
	if !p.JoinDate.Equal(now) {
		t.Errorf("JoinDate = %v, want now", p.JoinDate)
	}
}
