package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/goliatone/go-settings-stack/pkg/signal"
)

// MachineExtruderCountKey is the setting bounding how many extruder stacks
// may attach to a global stack.
const MachineExtruderCountKey = "machine_extruder_count"

// Slot names, in priority order (strongest first). They double as the
// section keys used by the serialization format.
const (
	SlotUserChanges       = "user_changes"
	SlotQualityChanges    = "quality_changes"
	SlotQuality           = "quality"
	SlotMaterial          = "material"
	SlotVariant           = "variant"
	SlotDefinitionChanges = "definition_changes"
	SlotDefinition        = "definition"
)

// GlobalStack is one printer configuration composed of seven fixed layers.
// The slot set is structurally closed: layers can be replaced but never
// added, removed, or re-linked. Effective values are resolved by querying
// the layers strongest to weakest, with the resolve property consulted
// when no override layer supplies a plain value.
//
// A GlobalStack is not safe for concurrent mutation; callers sharing one
// across goroutines must serialize access themselves.
type GlobalStack struct {
	id   string
	name string

	userChanges       Container
	qualityChanges    Container
	quality           Container
	material          Container
	variant           Container
	definitionChanges Container
	definition        Container

	extruders []*ExtruderStack
	resolving map[string]struct{}

	cfg stackConfig
}

// NewGlobalStack constructs a stack with every slot holding the empty
// sentinel and no extruders attached. A blank id is replaced with a
// generated UUID.
func NewGlobalStack(id string, opts ...StackOption) *GlobalStack {
	if id == "" {
		id = uuid.NewString()
	}
	empty := NewEmptyInstanceContainer(EmptyContainerID)
	stack := &GlobalStack{
		id:                id,
		userChanges:       empty,
		qualityChanges:    empty,
		quality:           empty,
		material:          empty,
		variant:           empty,
		definitionChanges: empty,
		definition:        empty,
		resolving:         map[string]struct{}{},
		cfg:               applyStackOptions(opts),
	}
	stack.registerBuiltins()
	return stack
}

func (s *GlobalStack) ID() string { return s.id }

// Name returns the display name recorded by the last deserialization.
func (s *GlobalStack) Name() string { return s.name }

// SetName updates the display name used when serializing.
func (s *GlobalStack) SetName(name string) { s.name = name }

func (s *GlobalStack) ContainerType() ContainerType { return ContainerTypeStack }

func (s *GlobalStack) MetaDataEntry(key string) string { return "" }

// slots returns the layers in priority order, strongest first.
func (s *GlobalStack) slots() [7]Container {
	return [7]Container{
		s.userChanges,
		s.qualityChanges,
		s.quality,
		s.material,
		s.variant,
		s.definitionChanges,
		s.definition,
	}
}

// UserChanges returns the strongest override layer.
func (s *GlobalStack) UserChanges() Container { return s.userChanges }

// QualityChanges returns the quality-changes layer.
func (s *GlobalStack) QualityChanges() Container { return s.qualityChanges }

// Quality returns the quality layer.
func (s *GlobalStack) Quality() Container { return s.quality }

// Material returns the material layer.
func (s *GlobalStack) Material() Container { return s.material }

// Variant returns the variant layer.
func (s *GlobalStack) Variant() Container { return s.variant }

// DefinitionChanges returns the definition-changes layer.
func (s *GlobalStack) DefinitionChanges() Container { return s.definitionChanges }

// Definition returns the bottom, schema-like layer.
func (s *GlobalStack) Definition() Container { return s.definition }

// SetUserChanges replaces the user-changes layer.
func (s *GlobalStack) SetUserChanges(container Container) error {
	return s.setInstanceSlot(&s.userChanges, SlotUserChanges, container)
}

// SetQualityChanges replaces the quality-changes layer.
func (s *GlobalStack) SetQualityChanges(container Container) error {
	return s.setInstanceSlot(&s.qualityChanges, SlotQualityChanges, container)
}

// SetQuality replaces the quality layer.
func (s *GlobalStack) SetQuality(container Container) error {
	return s.setInstanceSlot(&s.quality, SlotQuality, container)
}

// SetMaterial replaces the material layer.
func (s *GlobalStack) SetMaterial(container Container) error {
	return s.setInstanceSlot(&s.material, SlotMaterial, container)
}

// SetVariant replaces the variant layer.
func (s *GlobalStack) SetVariant(container Container) error {
	return s.setInstanceSlot(&s.variant, SlotVariant, container)
}

// SetDefinitionChanges replaces the definition-changes layer.
func (s *GlobalStack) SetDefinitionChanges(container Container) error {
	return s.setInstanceSlot(&s.definitionChanges, SlotDefinitionChanges, container)
}

// SetDefinition replaces the definition layer. Only definition containers
// are accepted.
func (s *GlobalStack) SetDefinition(container Container) error {
	if container == nil || container.ContainerType() != ContainerTypeDefinition {
		return fmt.Errorf("%w: slot %s requires a definition container, got %s",
			ErrInvalidContainer, SlotDefinition, describeContainer(container))
	}
	s.definition = container
	s.notifySlotChange(SlotDefinition, container)
	return nil
}

func (s *GlobalStack) setInstanceSlot(slot *Container, name string, container Container) error {
	if container == nil || container.ContainerType() != ContainerTypeInstance {
		return fmt.Errorf("%w: slot %s requires an instance container, got %s",
			ErrInvalidContainer, name, describeContainer(container))
	}
	*slot = container
	s.notifySlotChange(name, container)
	return nil
}

// AddExtruder attaches an extruder sub-stack. The attachment is rejected
// when it would exceed machine_extruder_count as resolved from the current
// definition; an unresolvable count applies no bound.
func (s *GlobalStack) AddExtruder(extruder *ExtruderStack) error {
	if limit, ok := toInt(s.definition.GetProperty(MachineExtruderCountKey, PropertyValue)); ok {
		if len(s.extruders)+1 > limit {
			return fmt.Errorf("%w: machine supports %d extruders", ErrTooManyExtruders, limit)
		}
	}
	s.extruders = append(s.extruders, extruder)
	s.notify("stack.extruder.added", map[string]any{
		"position": len(s.extruders) - 1,
	})
	return nil
}

// Extruders returns the attached extruder stacks in attachment order.
func (s *GlobalStack) Extruders() []*ExtruderStack {
	out := make([]*ExtruderStack, len(s.extruders))
	copy(out, s.extruders)
	return out
}

// AddContainer always fails: the slot set of a global stack is fixed.
func (s *GlobalStack) AddContainer(container Container) error {
	return fmt.Errorf("%w: cannot add a container", ErrInvalidOperation)
}

// InsertContainer always fails: the slot set of a global stack is fixed.
func (s *GlobalStack) InsertContainer(index int, container Container) error {
	return fmt.Errorf("%w: cannot insert a container", ErrInvalidOperation)
}

// RemoveContainer always fails: the slot set of a global stack is fixed.
func (s *GlobalStack) RemoveContainer(container Container) error {
	return fmt.Errorf("%w: cannot remove a container", ErrInvalidOperation)
}

// SetNextStack always fails: a global stack is the end of every lookup
// chain.
func (s *GlobalStack) SetNextStack(next *GlobalStack) error {
	return fmt.Errorf("%w: cannot chain a global stack", ErrInvalidOperation)
}

// GetProperty resolves the effective property for key across the layers.
//
// For the value property a two-phase lookup applies: when no override layer
// (everything above the definition) supplies a plain value, the resolve
// property is consulted across the whole stack and wins if present. An
// override value always beats resolve. Unknown properties yield nil.
func (s *GlobalStack) GetProperty(key, property string) any {
	if property == PropertyValue && s.shouldResolve(key) {
		s.resolving[key] = struct{}{}
		raw := s.lookupProperty(key, PropertyResolve)
		var resolved any
		if raw != nil {
			resolved = s.evaluateResolve(key, raw)
		}
		delete(s.resolving, key)
		if resolved != nil {
			return resolved
		}
	}
	return s.lookupProperty(key, property)
}

// HasProperty reports whether any layer supplies the property.
func (s *GlobalStack) HasProperty(key, property string) bool {
	return s.GetProperty(key, property) != nil
}

// HasUserValue reports whether the user-changes or quality-changes layer
// overrides the value of key. The empty key never counts as overridden.
func (s *GlobalStack) HasUserValue(key string) bool {
	if key == "" {
		return false
	}
	return s.userChanges.HasProperty(key, PropertyValue) ||
		s.qualityChanges.HasProperty(key, PropertyValue)
}

func (s *GlobalStack) lookupProperty(key, property string) any {
	for _, container := range s.slots() {
		if value := container.GetProperty(key, property); value != nil {
			return value
		}
	}
	return nil
}

// shouldResolve reports whether the resolve phase applies for key: only
// when no layer above the definition supplies a plain value, and never
// while the same key is already being resolved.
func (s *GlobalStack) shouldResolve(key string) bool {
	if _, busy := s.resolving[key]; busy {
		return false
	}
	slots := s.slots()
	for _, container := range slots[:len(slots)-1] {
		if container.GetProperty(key, PropertyValue) != nil {
			return false
		}
	}
	return true
}

func (s *GlobalStack) notifySlotChange(slot string, container Container) {
	s.notify("stack.container.replaced", map[string]any{
		"slot":      slot,
		"container": container.ID(),
	})
}

func (s *GlobalStack) notify(verb string, metadata map[string]any) {
	if !s.cfg.hooks.Enabled() {
		return
	}
	_ = s.cfg.hooks.Notify(context.Background(), signal.Event{
		Verb:       verb,
		ObjectType: "stack",
		ObjectID:   s.id,
		Metadata:   metadata,
	})
}

func describeContainer(container Container) string {
	if container == nil {
		return "nil"
	}
	return fmt.Sprintf("%s %q", container.ContainerType(), container.ID())
}

// toInt coerces the loosely typed values containers hand back into an int.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
