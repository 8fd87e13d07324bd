// Package stackfile reads and writes the INI-style documents a container
// stack is persisted as. It understands the current section-keyed format and
// the legacy single-section files written by older releases.
package stackfile

import (
	"bytes"
	"fmt"

	"gopkg.in/ini.v1"
)

// CurrentVersion is the document version written by Marshal.
const CurrentVersion = 3

const (
	sectionGeneral    = "general"
	sectionContainers = "containers"
)

// Slot keys used inside the containers section. They mirror the slot names
// of the stack being serialized.
var slotKeys = []string{
	"user_changes",
	"quality_changes",
	"quality",
	"material",
	"variant",
	"definition_changes",
	"definition",
}

// Legacy key names found in single-section documents.
const (
	legacyKeyMachine  = "machine"
	legacyKeyMaterial = "material"
	legacyKeyVariant  = "variant"
	legacyKeyProfile  = "profile"
)

// Document is the parsed form of a stack file. Containers maps slot keys to
// container identifiers; absent slots are simply missing from the map. For
// legacy documents Profile carries the undifferentiated profile reference
// whose destination slot depends on the referenced container.
type Document struct {
	Version    int
	ID         string
	Name       string
	Containers map[string]string
	Legacy     bool
	Profile    string
}

// Parse decodes a serialized stack document. A document without a containers
// section is treated as legacy: its machine, material, and variant keys map
// to the corresponding slots and the profile key is surfaced separately.
func Parse(data []byte) (Document, error) {
	file, err := ini.Load(data)
	if err != nil {
		return Document{}, fmt.Errorf("stackfile: cannot parse document: %w", err)
	}

	doc := Document{Containers: map[string]string{}}
	if general, err := file.GetSection(sectionGeneral); err == nil {
		doc.Version = general.Key("version").MustInt(0)
		doc.ID = general.Key("id").String()
		doc.Name = general.Key("name").String()
	}

	containers, err := file.GetSection(sectionContainers)
	if err != nil {
		return parseLegacy(file, doc)
	}
	for _, key := range slotKeys {
		if value := containers.Key(key).String(); value != "" {
			doc.Containers[key] = value
		}
	}
	return doc, nil
}

func parseLegacy(file *ini.File, doc Document) (Document, error) {
	general, err := file.GetSection(sectionGeneral)
	if err != nil {
		return Document{}, fmt.Errorf("stackfile: document has no general section")
	}
	doc.Legacy = true
	if machine := general.Key(legacyKeyMachine).String(); machine != "" {
		doc.Containers["definition"] = machine
	}
	if material := general.Key(legacyKeyMaterial).String(); material != "" {
		doc.Containers["material"] = material
	}
	if variant := general.Key(legacyKeyVariant).String(); variant != "" {
		doc.Containers["variant"] = variant
	}
	doc.Profile = general.Key(legacyKeyProfile).String()
	return doc, nil
}

// Marshal writes the document in the current format. Legacy documents are
// upgraded on the way out.
func (d Document) Marshal() ([]byte, error) {
	file := ini.Empty()
	general, err := file.NewSection(sectionGeneral)
	if err != nil {
		return nil, fmt.Errorf("stackfile: cannot write document: %w", err)
	}
	general.Key("version").SetValue(fmt.Sprintf("%d", CurrentVersion))
	if d.Name != "" {
		general.Key("name").SetValue(d.Name)
	}
	general.Key("id").SetValue(d.ID)

	containers, err := file.NewSection(sectionContainers)
	if err != nil {
		return nil, fmt.Errorf("stackfile: cannot write document: %w", err)
	}
	for _, key := range slotKeys {
		if id, ok := d.Containers[key]; ok && id != "" {
			containers.Key(key).SetValue(id)
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("stackfile: cannot write document: %w", err)
	}
	return buf.Bytes(), nil
}
