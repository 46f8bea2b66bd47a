package vaccine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kidsgourmet/api/pkg/apperr"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMasterRejectsBadInput(t *testing.T) {
	cat := NewCatalog(&mockMasterRepo{}, nil)

	if _, err := cat.LoadMaster(context.Background(), "/nonexistent/master.json", ""); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := cat.LoadMaster(context.Background(), writeTemp(t, "{not json"), ""); err == nil {
		t.Error("expected error for malformed JSON")
	}

	_, err := cat.LoadMaster(context.Background(), writeTemp(t, `{"vaccines":[{"code":"x"}]}`), "")
	ae := apperr.From(err)
	if ae == nil || ae.Code != "missing_version" {
		t.Errorf("expected missing_version, got %v", err)
	}

	_, err = cat.LoadMaster(context.Background(), writeTemp(t, `{"schedule_version":"v1","vaccines":[]}`), "")
	ae = apperr.From(err)
	if ae == nil || ae.Code != "empty_catalog" {
		t.Errorf("expected empty_catalog, got %v", err)
	}
}

func TestDefinitionsReturnsActiveOnly(t *testing.T) {
	repo := &mockMasterRepo{defs: testCatalogDefs()}
	inactive := &Definition{Code: "retired", ScheduleVersion: testVersion, IsActive: false}
	repo.defs = append(repo.defs, inactive)

	cat := NewCatalog(repo, nil)
	defs, err := cat.Definitions(context.Background(), testVersion)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range defs {
		if d.Code == "retired" {
			t.Error("inactive definition served")
		}
	}
	if len(defs) != 4 {
		t.Errorf("got %d definitions", len(defs))
	}
}
