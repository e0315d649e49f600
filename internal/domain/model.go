package domain

import "time"

// Tenant is the isolation root. Every other record is owned by exactly one tenant.
type Tenant struct {
	ID        uint      `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityType is a per-tenant schema class grouping configuration items.
type EntityType struct {
	ID        uint      `json:"id"`
	TenantID  uint      `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attribute is a per-tenant typed property definition.
type Attribute struct {
	ID         uint      `json:"id"`
	TenantID   uint      `json:"tenant_id"`
	Code       string    `json:"code"`
	Label      string    `json:"label"`
	DataType   DataType  `json:"data_type"`
	Searchable bool      `json:"searchable"`
	Indexed    bool      `json:"indexed"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Cardinality values for TypeAttribute mappings.
const (
	CardinalityOne  = "one"
	CardinalityMany = "many"
)

// TypeAttribute maps an attribute onto an entity type. The mapping is advisory:
// the value store accepts writes for unmapped attributes.
type TypeAttribute struct {
	ID           uint      `json:"id"`
	TenantID     uint      `json:"tenant_id"`
	EntityTypeID uint      `json:"entity_type_id"`
	AttributeID  uint      `json:"attribute_id"`
	Required     bool      `json:"required"`
	Cardinality  string    `json:"cardinality"`
	DefaultValue string    `json:"default_value"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RelationType is a per-tenant edge class.
type RelationType struct {
	ID        uint      `json:"id"`
	TenantID  uint      `json:"tenant_id"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Directed  bool      `json:"directed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entity is a configuration item. CI is the tenant-unique external handle.
type Entity struct {
	ID           uint      `json:"id"`
	TenantID     uint      `json:"tenant_id"`
	CI           string    `json:"ci"`
	EntityTypeID uint      `json:"entity_type_id"`
	TypeCode     string    `json:"type_code,omitempty"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Relation links two CIs under a relation type. The (tenant, type, src, dst)
// tuple is unique; creation is idempotent.
type Relation struct {
	ID             uint       `json:"id"`
	TenantID       uint       `json:"tenant_id"`
	RelationTypeID uint       `json:"relation_type_id"`
	TypeCode       string     `json:"type_code,omitempty"`
	TypeLabel      string     `json:"type_label,omitempty"`
	SrcCI          string     `json:"src_ci"`
	DstCI          string     `json:"dst_ci"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidTo        *time.Time `json:"valid_to,omitempty"`
	Note           string     `json:"note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AttributeSchema is one row of the declared schema for an entity type:
// the attribute definition joined with its type mapping.
type AttributeSchema struct {
	Attribute
	Required     bool   `json:"required"`
	Cardinality  string `json:"cardinality"`
	DefaultValue string `json:"default_value"`
	DisplayOrder int    `json:"display_order"`
}

// CIAttribute is the merged view of one schema attribute and its current value.
type CIAttribute struct {
	AttributeID  uint     `json:"attribute_id"`
	Code         string   `json:"code"`
	Label        string   `json:"label"`
	DataType     DataType `json:"data_type"`
	Required     bool     `json:"required"`
	Cardinality  string   `json:"cardinality"`
	DisplayOrder int      `json:"display_order"`
	Value        any      `json:"value"`
	HasValue     bool     `json:"has_value"`
}

// GraphNode is one node of a rendered subgraph. ID is the CI so that callers
// can overlay saved layouts by key.
type GraphNode struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"`
	Label string   `json:"label"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// GraphEdge is one edge of a rendered subgraph. Source or Target may name a CI
// absent from the node list when only the other endpoint matched the filter.
type GraphEdge struct {
	ID     uint   `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Label  string `json:"label"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Position is a saved canvas coordinate for one CI.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
