package settings

import (
	"fmt"

	"github.com/google/uuid"
)

// ExtruderStack is a dependent sub-configuration attached to a GlobalStack.
// It carries its own override layers and falls through to the next stack for
// anything it does not supply. Unlike a global stack, the next-stack link is
// rebindable.
type ExtruderStack struct {
	id       string
	position int

	userChanges    Container
	qualityChanges Container
	quality        Container
	material       Container
	variant        Container
	definition     Container

	next *GlobalStack
}

// NewExtruderStack constructs an extruder stack with every slot holding the
// empty sentinel. A blank id is replaced with a generated UUID.
func NewExtruderStack(id string, position int) *ExtruderStack {
	if id == "" {
		id = uuid.NewString()
	}
	empty := NewEmptyInstanceContainer(EmptyContainerID)
	return &ExtruderStack{
		id:             id,
		position:       position,
		userChanges:    empty,
		qualityChanges: empty,
		quality:        empty,
		material:       empty,
		variant:        empty,
		definition:     empty,
	}
}

func (s *ExtruderStack) ID() string { return s.id }

// Position returns the extruder's index on the machine.
func (s *ExtruderStack) Position() int { return s.position }

func (s *ExtruderStack) ContainerType() ContainerType { return ContainerTypeStack }

func (s *ExtruderStack) MetaDataEntry(key string) string { return "" }

// NextStack returns the global stack this extruder falls through to.
func (s *ExtruderStack) NextStack() *GlobalStack { return s.next }

// SetNextStack rebinds the fall-through target. Allowed here, in contrast to
// GlobalStack.
func (s *ExtruderStack) SetNextStack(next *GlobalStack) {
	s.next = next
}

func (s *ExtruderStack) slots() [6]Container {
	return [6]Container{
		s.userChanges,
		s.qualityChanges,
		s.quality,
		s.material,
		s.variant,
		s.definition,
	}
}

// UserChanges returns the strongest override layer.
func (s *ExtruderStack) UserChanges() Container { return s.userChanges }

// QualityChanges returns the quality-changes layer.
func (s *ExtruderStack) QualityChanges() Container { return s.qualityChanges }

// Quality returns the quality layer.
func (s *ExtruderStack) Quality() Container { return s.quality }

// Material returns the material layer.
func (s *ExtruderStack) Material() Container { return s.material }

// Variant returns the variant layer.
func (s *ExtruderStack) Variant() Container { return s.variant }

// Definition returns the bottom layer.
func (s *ExtruderStack) Definition() Container { return s.definition }

// SetUserChanges replaces the user-changes layer.
func (s *ExtruderStack) SetUserChanges(container Container) error {
	return s.setInstanceSlot(&s.userChanges, SlotUserChanges, container)
}

// SetQualityChanges replaces the quality-changes layer.
func (s *ExtruderStack) SetQualityChanges(container Container) error {
	return s.setInstanceSlot(&s.qualityChanges, SlotQualityChanges, container)
}

// SetQuality replaces the quality layer.
func (s *ExtruderStack) SetQuality(container Container) error {
	return s.setInstanceSlot(&s.quality, SlotQuality, container)
}

// SetMaterial replaces the material layer.
func (s *ExtruderStack) SetMaterial(container Container) error {
	return s.setInstanceSlot(&s.material, SlotMaterial, container)
}

// SetVariant replaces the variant layer.
func (s *ExtruderStack) SetVariant(container Container) error {
	return s.setInstanceSlot(&s.variant, SlotVariant, container)
}

// SetDefinition replaces the definition layer.
func (s *ExtruderStack) SetDefinition(container Container) error {
	if container == nil || container.ContainerType() != ContainerTypeDefinition {
		return fmt.Errorf("%w: slot %s requires a definition container, got %s",
			ErrInvalidContainer, SlotDefinition, describeContainer(container))
	}
	s.definition = container
	return nil
}

func (s *ExtruderStack) setInstanceSlot(slot *Container, name string, container Container) error {
	if container == nil || container.ContainerType() != ContainerTypeInstance {
		return fmt.Errorf("%w: slot %s requires an instance container, got %s",
			ErrInvalidContainer, name, describeContainer(container))
	}
	*slot = container
	return nil
}

// GetProperty queries the extruder's own layers strongest first and falls
// through to the next stack when nothing local supplies the property.
func (s *ExtruderStack) GetProperty(key, property string) any {
	for _, container := range s.slots() {
		if value := container.GetProperty(key, property); value != nil {
			return value
		}
	}
	if s.next != nil {
		return s.next.GetProperty(key, property)
	}
	return nil
}

// HasProperty reports whether any layer, including the next stack, supplies
// the property.
func (s *ExtruderStack) HasProperty(key, property string) bool {
	return s.GetProperty(key, property) != nil
}
