package settings

// ContainerQuery filters containers during lookup. Zero-valued fields act as
// wildcards; Type and Category match metadata entries of the same name.
type ContainerQuery struct {
	ID            string
	ContainerType ContainerType
	Type          string
	Category      string
}

// Matches reports whether the container satisfies every non-wildcard field.
func (q ContainerQuery) Matches(container Container) bool {
	if container == nil {
		return false
	}
	if q.ID != "" && container.ID() != q.ID {
		return false
	}
	if q.ContainerType != ContainerTypeUnknown && container.ContainerType() != q.ContainerType {
		return false
	}
	if q.Type != "" && container.MetaDataEntry("type") != q.Type {
		return false
	}
	if q.Category != "" && container.MetaDataEntry("category") != q.Category {
		return false
	}
	return true
}

// ContainerLookup resolves identifiers and query filters to containers. The
// engine tolerates lookups returning nothing and assumes nothing about result
// ordering beyond first match wins.
type ContainerLookup interface {
	// FindContainer returns the first container matching the query, or nil.
	FindContainer(query ContainerQuery) Container
	// FindContainers returns every container known under the given id.
	FindContainers(id string) []Container
}
