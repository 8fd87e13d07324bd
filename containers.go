package settings

// Property names with engine-level meaning.
const (
	PropertyValue   = "value"
	PropertyResolve = "resolve"
)

// EmptyContainerID is the identifier of the shared sentinel representing an
// absent override layer.
const EmptyContainerID = "empty"

// ContainerType tags the variant of a container so slot assignment can be
// validated at runtime.
type ContainerType int

const (
	// ContainerTypeUnknown guards against untagged containers; no slot
	// accepts it.
	ContainerTypeUnknown ContainerType = iota
	// ContainerTypeDefinition marks read-only, schema-like containers.
	ContainerTypeDefinition
	// ContainerTypeInstance marks mutable override containers.
	ContainerTypeInstance
	// ContainerTypeStack marks container stacks acting as a value source.
	ContainerTypeStack
)

func (t ContainerType) String() string {
	switch t {
	case ContainerTypeDefinition:
		return "definition"
	case ContainerTypeInstance:
		return "instance"
	case ContainerTypeStack:
		return "stack"
	default:
		return "unknown"
	}
}

// Container is a polymorphic source of setting properties. GetProperty
// returns nil when the container does not hold the requested property.
type Container interface {
	ID() string
	ContainerType() ContainerType
	GetProperty(key, property string) any
	HasProperty(key, property string) bool
	MetaDataEntry(key string) string
}

// InstanceContainer holds a mutable set of per-setting property overrides
// plus free-form metadata. It is the only variant the override slots of a
// global stack accept.
type InstanceContainer struct {
	id       string
	metaData map[string]string
	settings map[string]map[string]any
}

// NewInstanceContainer constructs an empty override container.
func NewInstanceContainer(id string) *InstanceContainer {
	return &InstanceContainer{
		id:       id,
		metaData: map[string]string{},
		settings: map[string]map[string]any{},
	}
}

func (c *InstanceContainer) ID() string { return c.id }

func (c *InstanceContainer) ContainerType() ContainerType { return ContainerTypeInstance }

// SetProperty records value for the given setting key and property name.
func (c *InstanceContainer) SetProperty(key, property string, value any) {
	properties, ok := c.settings[key]
	if !ok {
		properties = map[string]any{}
		c.settings[key] = properties
	}
	properties[property] = value
}

func (c *InstanceContainer) GetProperty(key, property string) any {
	if properties, ok := c.settings[key]; ok {
		return properties[property]
	}
	return nil
}

func (c *InstanceContainer) HasProperty(key, property string) bool {
	return c.GetProperty(key, property) != nil
}

// SetMetaDataEntry stores a metadata entry such as "type" or "category".
func (c *InstanceContainer) SetMetaDataEntry(key, value string) {
	c.metaData[key] = value
}

func (c *InstanceContainer) MetaDataEntry(key string) string {
	return c.metaData[key]
}

// DefinitionContainer is the schema-like bottom layer of a stack. Settings
// are copied on construction and never mutated afterwards; resolve entries
// may be literal values or expression strings.
type DefinitionContainer struct {
	id       string
	metaData map[string]string
	settings map[string]map[string]any
}

// NewDefinitionContainer copies the supplied settings into a read-only
// definition. The outer map is keyed by setting key, the inner map by
// property name.
func NewDefinitionContainer(id string, settings map[string]map[string]any) *DefinitionContainer {
	copied := make(map[string]map[string]any, len(settings))
	for key, properties := range settings {
		inner := make(map[string]any, len(properties))
		for property, value := range properties {
			inner[property] = value
		}
		copied[key] = inner
	}
	return &DefinitionContainer{
		id:       id,
		metaData: map[string]string{},
		settings: copied,
	}
}

// WithMetaData attaches metadata entries and returns the container for
// chaining during construction.
func (c *DefinitionContainer) WithMetaData(metaData map[string]string) *DefinitionContainer {
	for key, value := range metaData {
		c.metaData[key] = value
	}
	return c
}

func (c *DefinitionContainer) ID() string { return c.id }

func (c *DefinitionContainer) ContainerType() ContainerType { return ContainerTypeDefinition }

func (c *DefinitionContainer) GetProperty(key, property string) any {
	if properties, ok := c.settings[key]; ok {
		return properties[property]
	}
	return nil
}

func (c *DefinitionContainer) HasProperty(key, property string) bool {
	return c.GetProperty(key, property) != nil
}

func (c *DefinitionContainer) MetaDataEntry(key string) string {
	return c.metaData[key]
}

// EmptyInstanceContainer represents an absent override layer. It answers
// every property query as absent. The id is configurable because lookup
// implementations hand out sentinels carrying the id that was requested.
type EmptyInstanceContainer struct {
	id string
}

// NewEmptyInstanceContainer builds a sentinel with the given id, defaulting
// to EmptyContainerID when blank.
func NewEmptyInstanceContainer(id string) *EmptyInstanceContainer {
	if id == "" {
		id = EmptyContainerID
	}
	return &EmptyInstanceContainer{id: id}
}

func (c *EmptyInstanceContainer) ID() string { return c.id }

func (c *EmptyInstanceContainer) ContainerType() ContainerType { return ContainerTypeInstance }

func (c *EmptyInstanceContainer) GetProperty(key, property string) any { return nil }

func (c *EmptyInstanceContainer) HasProperty(key, property string) bool { return false }

func (c *EmptyInstanceContainer) MetaDataEntry(key string) string { return "" }
