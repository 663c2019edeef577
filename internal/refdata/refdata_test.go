package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadHubs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, HubFile, `Community Number,Hub,Community Name
12345,DFW North, Trinity Falls
not-a-number,DFW South,Skipped
22345,HOU West,Sunterra
`)

	hubs, err := LoadHubs(filepath.Join(dir, HubFile))
	if err != nil {
		t.Fatalf("LoadHubs() error = %v", err)
	}

	if len(hubs) != 2 {
		t.Fatalf("expected 2 hubs (bad row skipped), got %d", len(hubs))
	}
	if hubs[12345].Hub != "DFW North" {
		t.Errorf("hub = %q, want DFW North", hubs[12345].Hub)
	}
	if hubs[12345].CommunityName != "Trinity Falls" {
		t.Errorf("community name = %q, want trimmed Trinity Falls", hubs[12345].CommunityName)
	}
}

func TestLoadHubs_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, HubFile, "Community Number,Hub\n12345,DFW North\n")

	if _, err := LoadHubs(filepath.Join(dir, HubFile)); err == nil {
		t.Error("expected error for missing Community Name column")
	}
}

func TestLoadPlans(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PlanFile, `Plan Code,Plan Name,Collection
120,Juniper,Cottage
,Empty,Skipped
2105,Bluebonnet,Texan
`)

	plans, err := LoadPlans(filepath.Join(dir, PlanFile))
	if err != nil {
		t.Fatalf("LoadPlans() error = %v", err)
	}

	if len(plans) != 2 {
		t.Fatalf("expected 2 plans (empty code skipped), got %d", len(plans))
	}
	if plans["120"].PlanName != "Juniper" || plans["120"].Collection != "Cottage" {
		t.Errorf("plan 120 = %+v", plans["120"])
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, HubFile, "Community Number,Hub,Community Name\n12345,DFW North,Trinity Falls\n")
	writeFile(t, dir, PlanFile, "Plan Code,Plan Name,Collection\n120,Juniper,Cottage\n")

	hubs, plans, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(hubs) != 1 || len(plans) != 1 {
		t.Errorf("loaded %d hubs, %d plans", len(hubs), len(plans))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error when reference files are absent")
	}
}
