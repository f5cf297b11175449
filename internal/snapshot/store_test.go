package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sakif/codesave/internal/apperror"
	"github.com/sakif/codesave/internal/model"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================

// memRepo is an in-memory repository.DocumentRepository.
// Setting failWrites makes every write fail without touching the map.
type memRepo struct {
	docs       map[string][]byte
	failWrites bool
	failReads  bool
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[string][]byte)}
}

func (m *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	if m.failReads {
		return nil, errors.New("disk on fire")
	}
	v, ok := m.docs[key]
	if !ok {
		return nil, apperror.NotFound("document", key)
	}
	return v, nil
}

func (m *memRepo) Put(_ context.Context, key string, value []byte) error {
	if m.failWrites {
		return errors.New("quota exceeded")
	}
	m.docs[key] = value
	return nil
}

func (m *memRepo) PutAll(_ context.Context, docs map[string][]byte) error {
	if m.failWrites {
		return errors.New("quota exceeded")
	}
	maps.Copy(m.docs, docs)
	return nil
}

func (m *memRepo) Clear(_ context.Context) error {
	clear(m.docs)
	return nil
}

var fixedNow = time.Date(2024, 5, 15, 12, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	s := NewStore(repo, logger)
	s.now = func() time.Time { return fixedNow }
	return s, repo
}

// =========================================================================
// LOAD / SAVE
// =========================================================================

func TestLoadPastes_MissingKeyIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	got := s.LoadPastes(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("LoadPastes() = %#v, want empty slice", got)
	}
}

func TestLoadPastes_CorruptDocumentIsEmpty(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyPastes] = []byte(`{not valid json`)

	if got := s.LoadPastes(context.Background()); len(got) != 0 {
		t.Errorf("LoadPastes() = %v, want empty", got)
	}
}

func TestLoadPastes_ReadFailureIsEmpty(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyPastes] = []byte(`[{"id":"a"}]`)
	repo.failReads = true

	if got := s.LoadPastes(context.Background()); len(got) != 0 {
		t.Errorf("LoadPastes() = %v, want empty", got)
	}
}

func TestLoadPastes_RecordRules(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyPastes] = []byte(`[
		{"id":"a","title":"first","language":"go","tags":["x"]},
		{"title":"no id"},
		{"id":"b","views":"lots"},
		{"id":"a","title":"duplicate"},
		42,
		{"id":"c","title":"bare"},
		{"_id":"d","title":"legacy key"}
	]`)

	got := s.LoadPastes(context.Background())

	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if want := []string{"a", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if got[0].Title != "first" {
		t.Errorf("duplicate id replaced the first record: title %q", got[0].Title)
	}
	if got[1].Tags == nil || len(got[1].Tags) != 0 {
		t.Errorf("Tags = %#v, want empty slice", got[1].Tags)
	}
	if got[1].Language != "text" {
		t.Errorf("Language = %q, want text", got[1].Language)
	}
}

func TestLoadFolders_LegacyID(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyFolders] = []byte(`[{"_id":"f1","name":"Work"},{"id":"f2","name":"Home"},{"name":"nameless"}]`)

	got := s.LoadFolders(context.Background())

	want := []model.Folder{{ID: "f1", Name: "Work"}, {ID: "f2", Name: "Home"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFolders() = %+v, want %+v", got, want)
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{{ID: "a"}})
	s.SavePreferences(ctx, model.Preferences{"darkMode": true})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if got := s.LoadPastes(ctx); len(got) != 0 {
		t.Errorf("pastes after Clear = %v", got)
	}
	if s.LoadPreferences(ctx).Bool("darkMode") {
		t.Error("preferences survived Clear")
	}
}

func TestPastes_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created := model.NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC))
	want := []model.Snippet{{
		ID:        "a",
		Title:     "Hello",
		Content:   "fmt.Println()",
		Language:  "go",
		Tags:      []string{"starter"},
		FolderID:  model.StringPtr("f1"),
		CreatedAt: created,
		UpdatedAt: created,
		Views:     3,
	}}

	s.SavePastes(ctx, want)
	got := s.LoadPastes(ctx)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadPastes() = %+v, want %+v", got, want)
	}
}

func TestSave_WriteFailureIsSwallowed(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	s.SaveFolders(ctx, []model.Folder{{ID: "f1", Name: "Work"}})

	repo.failWrites = true
	s.SaveFolders(ctx, []model.Folder{{ID: "f2", Name: "Play"}})

	got := s.LoadFolders(ctx)
	if len(got) != 1 || got[0].Name != "Work" {
		t.Errorf("LoadFolders() = %v, want the earlier save", got)
	}
}

func TestSavePastes_NilIsEmptyArray(t *testing.T) {
	s, repo := newTestStore(t)
	s.SavePastes(context.Background(), nil)

	if got := string(repo.docs[KeyPastes]); got != "[]" {
		t.Errorf("stored %q, want []", got)
	}
}

func TestLoadAccounts(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyAccounts] = []byte(`[
		{"username":"ada","email":"ada@example.com","password":"pw"},
		{"email":"nobody@example.com"},
		{"username":"ada","email":"other@example.com"}
	]`)

	got := s.LoadAccounts(context.Background())
	if len(got) != 1 || got[0].Email != "ada@example.com" {
		t.Errorf("LoadAccounts() = %+v", got)
	}
}

// Stored {"fontSize":"large"} must keep every other default.
func TestLoadPreferences_KeyWiseMerge(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyPreferences] = []byte(`{"fontSize":"large","experimental":1}`)

	got := s.LoadPreferences(context.Background())

	if got["fontSize"] != "large" {
		t.Errorf("fontSize = %v, want large", got["fontSize"])
	}
	if v, ok := got["darkMode"]; !ok || v != false {
		t.Errorf("darkMode = %v (present %v), want default false", v, ok)
	}
	if _, ok := got["experimental"]; !ok {
		t.Error("unknown stored key was dropped")
	}
	if len(got) != len(model.DefaultPreferences())+1 {
		t.Errorf("len = %d, want defaults plus one", len(got))
	}
}

func TestLoadPreferences_CorruptIsDefaults(t *testing.T) {
	s, repo := newTestStore(t)
	repo.docs[KeyPreferences] = []byte(`["not","an","object"]`)

	got := s.LoadPreferences(context.Background())
	if !reflect.DeepEqual(got, model.DefaultPreferences()) {
		t.Errorf("LoadPreferences() = %v, want defaults", got)
	}
}

func TestLoadUser(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   model.UserProfile
	}{
		{
			name:   "missing key gives default user",
			stored: "",
			want:   model.DefaultUser(fixedNow),
		},
		{
			name:   "stored fields override, others keep defaults",
			stored: `{"name":"X","bio":"hi"}`,
			want: model.UserProfile{
				Name:     "X",
				Email:    model.DefaultUserEmail,
				Bio:      "hi",
				JoinDate: model.NewTimestamp(fixedNow),
			},
		},
		{
			name:   "corrupt document gives default user",
			stored: `{"name":`,
			want:   model.DefaultUser(fixedNow),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo := newTestStore(t)
			if tt.stored != "" {
				repo.docs[KeyUser] = []byte(tt.stored)
			}
			if got := s.LoadUser(context.Background()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadUser() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// =========================================================================
// EXPORT / IMPORT
// =========================================================================

func TestExportJSON_Shape(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{})
	s.SavePreferences(ctx, model.Preferences{"darkMode": true})
	s.SaveUser(ctx, model.UserProfile{Name: "X"})

	data, err := s.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, key := range []string{"pastes", "preferences", "user", "timestamp"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export is missing %q", key)
		}
	}
	if pastes, ok := doc["pastes"].([]any); !ok || len(pastes) != 0 {
		t.Errorf("pastes = %#v, want []", doc["pastes"])
	}
	if ts, _ := doc["timestamp"].(string); ts != "2024-05-15T12:30:00.000Z" {
		t.Errorf("timestamp = %q", ts)
	}
	if prefs := doc["preferences"].(map[string]any); prefs["darkMode"] != true {
		t.Errorf("preferences.darkMode = %v, want true", prefs["darkMode"])
	}
	if !strings.Contains(string(data), "\n  \"pastes\"") {
		t.Error("export is not indented with two spaces")
	}
}

func TestBackupFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	if got, want := BackupFilename(at), "paste-app-backup-2024-03-10.json"; got != want {
		t.Errorf("BackupFilename() = %q, want %q", got, want)
	}
}

func TestImport_InvalidJSONChangesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{{ID: "keep"}})

	for _, input := range []string{`{not valid json`, `null`, `[1,2]`, `"text"`} {
		if s.Import(ctx, []byte(input)) {
			t.Errorf("Import(%s) = true, want false", input)
		}
	}

	if got := s.LoadPastes(ctx); len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("LoadPastes() = %v, want unchanged", got)
	}
}

func TestImport_PartialDocument(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{{ID: "old"}})
	s.SaveUser(ctx, model.UserProfile{Name: "Before"})

	ok := s.Import(ctx, []byte(`{"pastes":[{"id":"new"}],"user":null,"extra":{"x":1}}`))
	if !ok {
		t.Fatal("Import() = false, want true")
	}

	if got := s.LoadPastes(ctx); len(got) != 1 || got[0].ID != "new" {
		t.Errorf("pastes = %v, want the imported one", got)
	}
	if got := s.LoadUser(ctx); got.Name != "Before" {
		t.Errorf("user.name = %q, null field must not overwrite", got.Name)
	}
}

func TestImport_NullFieldsLeaveStorageUntouched(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{{ID: "keep", Title: "Kept"}})
	s.SaveUser(ctx, model.UserProfile{Name: "Before"})

	if !s.Import(ctx, []byte(`{"pastes": null, "user": null}`)) {
		t.Fatal("Import() = false, want true")
	}

	if got := s.LoadPastes(ctx); len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("pastes = %v, want the stored one", got)
	}
	if got := s.LoadUser(ctx); got.Name != "Before" {
		t.Errorf("user.name = %q, want Before", got.Name)
	}
}

func TestImport_WriteFailureReturnsFalse(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{{ID: "keep"}})
	repo.failWrites = true

	if s.Import(ctx, []byte(`{"pastes":[],"preferences":{"darkMode":true}}`)) {
		t.Error("Import() = true on a failed write")
	}

	repo.failWrites = false
	if got := s.LoadPastes(ctx); len(got) != 1 {
		t.Errorf("pastes = %v, want unchanged", got)
	}
	if got := s.LoadPreferences(ctx); got.Bool("darkMode") {
		t.Error("preferences changed after a failed import")
	}
}

func TestExportImport_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SavePastes(ctx, []model.Snippet{
		{ID: "a", Title: "A", Language: "go", Tags: []string{}, CreatedAt: model.NewTimestamp(fixedNow)},
		{ID: "b", Title: "B", Language: "sql", Tags: []string{"db"}, IsPrivate: true, Views: 9},
	})
	s.SavePreferences(ctx, model.Preferences{"theme": "ocean"})
	s.SaveUser(ctx, model.UserProfile{Username: "ada", Name: "Ada"})

	before := s.Export(ctx)
	data, err := s.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	if !s.Import(ctx, data) {
		t.Fatal("Import(ExportJSON()) = false")
	}
	after := s.Export(ctx)

	if !reflect.DeepEqual(before.Pastes, after.Pastes) {
		t.Errorf("pastes changed:\n%+v\n%+v", before.Pastes, after.Pastes)
	}
	if !reflect.DeepEqual(before.Preferences, after.Preferences) {
		t.Errorf("preferences changed:\n%v\n%v", before.Preferences, after.Preferences)
	}
	if !reflect.DeepEqual(before.User, after.User) {
		t.Errorf("user changed:\n%+v\n%+v", before.User, after.User)
	}
}
