package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	settings "github.com/goliatone/go-settings-stack"
)

// File suffixes recognized by LoadDir.
const (
	DefinitionSuffix = ".def.json"
	InstanceSuffix   = ".inst.cfg"
)

type definitionDocument struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	MetaData map[string]string         `json:"metadata"`
	Settings map[string]map[string]any `json:"settings"`
}

// LoadDefinition decodes a JSON definition document. Settings map setting
// keys to property maps; resolve properties may be expression strings.
func LoadDefinition(data []byte) (*settings.DefinitionContainer, error) {
	var doc definitionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: cannot parse definition: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("registry: definition document has no id")
	}
	metaData := map[string]string{}
	for key, value := range doc.MetaData {
		metaData[key] = value
	}
	if doc.Name != "" {
		metaData["name"] = doc.Name
	}
	return settings.NewDefinitionContainer(doc.ID, doc.Settings).WithMetaData(metaData), nil
}

// LoadInstance decodes an INI instance profile: a general section with the
// id, a metadata section for entries such as type and category, and a values
// section whose entries become the value property of each setting.
func LoadInstance(data []byte) (*settings.InstanceContainer, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("registry: cannot parse instance profile: %w", err)
	}
	general, err := file.GetSection("general")
	if err != nil {
		return nil, fmt.Errorf("registry: instance profile has no general section")
	}
	id := general.Key("id").String()
	if id == "" {
		return nil, fmt.Errorf("registry: instance profile has no id")
	}

	container := settings.NewInstanceContainer(id)
	if name := general.Key("name").String(); name != "" {
		container.SetMetaDataEntry("name", name)
	}
	if metadata, err := file.GetSection("metadata"); err == nil {
		for _, key := range metadata.Keys() {
			container.SetMetaDataEntry(key.Name(), key.String())
		}
	}
	if values, err := file.GetSection("values"); err == nil {
		for _, key := range values.Keys() {
			container.SetProperty(key.Name(), settings.PropertyValue, coerceScalar(key.String()))
		}
	}
	return container, nil
}

// LoadDir ingests every recognized container file directly under dir.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("registry: cannot read container directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch {
		case strings.HasSuffix(name, DefinitionSuffix):
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("registry: cannot read %s: %w", name, err)
			}
			definition, err := LoadDefinition(data)
			if err != nil {
				return fmt.Errorf("registry: %s: %w", name, err)
			}
			r.Add(definition)
		case strings.HasSuffix(name, InstanceSuffix):
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("registry: cannot read %s: %w", name, err)
			}
			instance, err := LoadInstance(data)
			if err != nil {
				return fmt.Errorf("registry: %s: %w", name, err)
			}
			r.Add(instance)
		}
	}
	return nil
}

// coerceScalar converts profile values to the narrowest matching Go type so
// numeric settings compare naturally during resolution.
func coerceScalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := strconv.Atoi(trimmed); err == nil {
		return parsed
	}
	if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return parsed
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
