package registry

import (
	"os"
	"path/filepath"
	"testing"

	settings "github.com/goliatone/go-settings-stack"
)

func TestRegistryFindContainer(t *testing.T) {
	quality := settings.NewInstanceContainer("normal")
	quality.SetMetaDataEntry("type", "quality")
	material := settings.NewInstanceContainer("generic_pla")
	material.SetMetaDataEntry("type", "material")
	material.SetMetaDataEntry("category", "generic")
	definition := settings.NewDefinitionContainer("test_machine", nil)

	reg := New()
	reg.Add(quality)
	reg.Add(material)
	reg.Add(definition)
	if reg.Len() != 3 {
		t.Fatalf("unexpected registry size %d", reg.Len())
	}

	if got := reg.FindContainer(settings.ContainerQuery{ID: "generic_pla"}); got != material {
		t.Fatalf("expected the material by id, got %v", got)
	}
	if got := reg.FindContainer(settings.ContainerQuery{ContainerType: settings.ContainerTypeDefinition}); got != definition {
		t.Fatalf("expected the definition by container type, got %v", got)
	}
	if got := reg.FindContainer(settings.ContainerQuery{Type: "quality"}); got != quality {
		t.Fatalf("expected the quality profile by metadata type, got %v", got)
	}
	if got := reg.FindContainer(settings.ContainerQuery{Category: "generic"}); got != material {
		t.Fatalf("expected the material by category, got %v", got)
	}
	if got := reg.FindContainer(settings.ContainerQuery{ID: "missing"}); got != nil {
		t.Fatalf("expected nil for an unknown id, got %v", got)
	}
}

func TestRegistryFirstMatchWins(t *testing.T) {
	first := settings.NewInstanceContainer("dup")
	second := settings.NewInstanceContainer("dup")

	reg := New()
	reg.Add(first)
	reg.Add(second)

	if got := reg.FindContainer(settings.ContainerQuery{ID: "dup"}); got != first {
		t.Fatalf("expected the earliest registration to win")
	}
	if got := reg.FindContainers("dup"); len(got) != 2 {
		t.Fatalf("expected both registrations, got %d", len(got))
	}
}

func TestLoadDefinition(t *testing.T) {
	data := []byte(`{
		"id": "test_machine",
		"name": "Test Machine",
		"metadata": {"manufacturer": "ACME"},
		"settings": {
			"machine_extruder_count": {"value": 2},
			"material_bed_temperature": {"value": 60, "resolve": "call('extruderValue', 0, 'material_bed_temperature')"}
		}
	}`)
	definition, err := LoadDefinition(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if definition.ID() != "test_machine" {
		t.Fatalf("unexpected id %q", definition.ID())
	}
	if got := definition.MetaDataEntry("manufacturer"); got != "ACME" {
		t.Fatalf("unexpected manufacturer %q", got)
	}
	if got := definition.MetaDataEntry("name"); got != "Test Machine" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := definition.GetProperty("machine_extruder_count", settings.PropertyValue); got != 2.0 {
		t.Fatalf("unexpected extruder count %v", got)
	}
	if got := definition.GetProperty("material_bed_temperature", settings.PropertyResolve); got == nil {
		t.Fatalf("expected a resolve expression")
	}
}

func TestLoadDefinitionRequiresID(t *testing.T) {
	if _, err := LoadDefinition([]byte(`{"name": "anonymous"}`)); err == nil {
		t.Fatalf("expected an error for a definition without an id")
	}
}

func TestLoadInstance(t *testing.T) {
	data := []byte(`[general]
id = fine_quality
name = Fine

[metadata]
type = quality

[values]
layer_height = 0.1
infill_sparse_density = 20
retract_at_layer_change = true
mesh_position = centered
`)
	instance, err := LoadInstance(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instance.ID() != "fine_quality" {
		t.Fatalf("unexpected id %q", instance.ID())
	}
	if got := instance.MetaDataEntry("type"); got != "quality" {
		t.Fatalf("unexpected type %q", got)
	}
	if got := instance.GetProperty("layer_height", settings.PropertyValue); got != 0.1 {
		t.Fatalf("expected float coercion, got %v (%T)", got, got)
	}
	if got := instance.GetProperty("infill_sparse_density", settings.PropertyValue); got != 20 {
		t.Fatalf("expected int coercion, got %v (%T)", got, got)
	}
	if got := instance.GetProperty("retract_at_layer_change", settings.PropertyValue); got != true {
		t.Fatalf("expected bool coercion, got %v (%T)", got, got)
	}
	if got := instance.GetProperty("mesh_position", settings.PropertyValue); got != "centered" {
		t.Fatalf("expected the raw string, got %v (%T)", got, got)
	}
}

func TestLoadInstanceRequiresID(t *testing.T) {
	if _, err := LoadInstance([]byte("[general]\nname = anonymous\n")); err == nil {
		t.Fatalf("expected an error for a profile without an id")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	definition := `{"id": "test_machine", "settings": {}}`
	instance := "[general]\nid = fine_quality\n\n[metadata]\ntype = quality\n"
	if err := os.WriteFile(filepath.Join(dir, "test_machine.def.json"), []byte(definition), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fine.inst.cfg"), []byte(instance), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}

	reg := New()
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("unexpected error loading directory: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 containers, got %d", reg.Len())
	}
	if got := reg.FindContainer(settings.ContainerQuery{ID: "test_machine"}); got == nil {
		t.Fatalf("expected the definition to be registered")
	}
	if got := reg.FindContainer(settings.ContainerQuery{ID: "fine_quality", Type: "quality"}); got == nil {
		t.Fatalf("expected the instance profile to be registered")
	}
}

func TestLoadDirRejectsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.def.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	if err := New().LoadDir(dir); err == nil {
		t.Fatalf("expected an error for a broken definition file")
	}
}
