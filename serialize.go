package settings

import (
	"fmt"

	"github.com/goliatone/go-settings-stack/internal/stackfile"
)

var overrideSlots = []string{
	SlotUserChanges,
	SlotQualityChanges,
	SlotQuality,
	SlotMaterial,
	SlotVariant,
	SlotDefinitionChanges,
}

// Serialize renders the stack as a section-keyed document recording each
// slot's container identifier.
func (s *GlobalStack) Serialize() ([]byte, error) {
	doc := stackfile.Document{
		Version: stackfile.CurrentVersion,
		ID:      s.id,
		Name:    s.name,
		Containers: map[string]string{
			SlotUserChanges:       s.userChanges.ID(),
			SlotQualityChanges:    s.qualityChanges.ID(),
			SlotQuality:           s.quality.ID(),
			SlotMaterial:          s.material.ID(),
			SlotVariant:           s.variant.ID(),
			SlotDefinitionChanges: s.definitionChanges.ID(),
			SlotDefinition:        s.definition.ID(),
		},
	}
	return doc.Marshal()
}

// Deserialize reconstitutes every slot from a serialized document, resolving
// container identifiers through the configured lookup. Override slots absent
// from the document become the empty sentinel; the definition always resolves
// to a concrete container, by id first and by a type-filtered query
// otherwise. All slots are staged before any is committed, so a failed
// deserialization leaves the stack untouched.
//
// An identifier the lookup cannot resolve yields a deliberately untyped
// error: callers must treat a broken stack file as opaque rather than
// dispatch on a failure kind.
func (s *GlobalStack) Deserialize(data []byte) error {
	doc, err := stackfile.Parse(data)
	if err != nil {
		return err
	}
	lookup := s.cfg.lookup
	if lookup == nil {
		return fmt.Errorf("settings: stack %s has no container lookup to deserialize with", s.id)
	}

	staged := make(map[string]Container, len(overrideSlots)+1)
	for _, slot := range overrideSlots {
		id := doc.Containers[slot]
		if id == "" || id == EmptyContainerID {
			staged[slot] = NewEmptyInstanceContainer(EmptyContainerID)
			continue
		}
		containers := lookup.FindContainers(id)
		if len(containers) == 0 {
			return fmt.Errorf("settings: stack %s references unknown container %q for slot %s", s.id, id, slot)
		}
		staged[slot] = containers[0]
	}

	var definition Container
	if id := doc.Containers[SlotDefinition]; id != "" {
		definition = lookup.FindContainer(ContainerQuery{ID: id, ContainerType: ContainerTypeDefinition})
	}
	if definition == nil {
		definition = lookup.FindContainer(ContainerQuery{ContainerType: ContainerTypeDefinition})
	}
	if definition == nil {
		return fmt.Errorf("settings: stack %s cannot resolve a definition container", s.id)
	}

	// Old single-section files record one undifferentiated profile; it maps
	// to the quality slot only when the referenced container is one.
	if doc.Legacy && doc.Profile != "" {
		if containers := lookup.FindContainers(doc.Profile); len(containers) > 0 &&
			containers[0].MetaDataEntry("type") == "quality" {
			staged[SlotQuality] = containers[0]
		}
	}

	s.userChanges = staged[SlotUserChanges]
	s.qualityChanges = staged[SlotQualityChanges]
	s.quality = staged[SlotQuality]
	s.material = staged[SlotMaterial]
	s.variant = staged[SlotVariant]
	s.definitionChanges = staged[SlotDefinitionChanges]
	s.definition = definition
	if doc.Name != "" {
		s.name = doc.Name
	}

	s.notify("stack.deserialized", map[string]any{
		"definition": definition.ID(),
		"legacy":     doc.Legacy,
	})
	return nil
}
