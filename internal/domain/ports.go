package domain

import "context"

// Repository is the storage port for the catalog, the entity/value store, the
// relation store and the graph queries.
type Repository interface {
	CreateTenant(ctx context.Context, value Tenant) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	GetTenantByID(ctx context.Context, id uint) (Tenant, error)
	GetTenantByCode(ctx context.Context, code string) (Tenant, error)
	UpdateTenant(ctx context.Context, id uint, name string) (Tenant, error)
	DeleteTenant(ctx context.Context, id uint) error
	CountTenantDependents(ctx context.Context, id uint) (map[string]int64, error)

	CreateEntityType(ctx context.Context, value EntityType) (EntityType, error)
	ListEntityTypes(ctx context.Context, tenantID uint) ([]EntityType, error)
	GetEntityTypeByID(ctx context.Context, tenantID, id uint) (EntityType, error)
	GetEntityTypeByCode(ctx context.Context, tenantID uint, code string) (EntityType, error)
	UpdateEntityType(ctx context.Context, tenantID, id uint, name, icon string) (EntityType, error)
	DeleteEntityType(ctx context.Context, id uint) error
	CountEntityTypeDependents(ctx context.Context, id uint) (map[string]int64, error)

	CreateAttribute(ctx context.Context, value Attribute) (Attribute, error)
	ListAttributes(ctx context.Context, tenantID uint) ([]Attribute, error)
	GetAttributeByCode(ctx context.Context, tenantID uint, code string) (Attribute, error)
	ResolveAttributes(ctx context.Context, tenantID uint, codes []string) ([]Attribute, error)
	UpdateAttribute(ctx context.Context, tenantID, id uint, value Attribute) (Attribute, error)
	DeleteAttribute(ctx context.Context, id uint) error
	CountAttributeDependents(ctx context.Context, id uint) (map[string]int64, error)

	MapTypeAttribute(ctx context.Context, value TypeAttribute) (TypeAttribute, error)
	ListTypeAttributes(ctx context.Context, tenantID, entityTypeID uint) ([]TypeAttribute, error)
	UnmapTypeAttribute(ctx context.Context, tenantID, id uint) error
	AttributeSchemaForType(ctx context.Context, tenantID, entityTypeID uint) ([]AttributeSchema, error)

	CreateRelationType(ctx context.Context, value RelationType) (RelationType, error)
	ListRelationTypes(ctx context.Context, tenantID uint) ([]RelationType, error)
	GetRelationTypeByCode(ctx context.Context, tenantID uint, code string) (RelationType, error)

	// CreateEntityWithValues inserts the entity row and its initial slot writes
	// in one transaction.
	CreateEntityWithValues(ctx context.Context, value Entity, writes []ValueWrite) (Entity, error)
	GetEntityByCI(ctx context.Context, tenantID uint, ci string) (Entity, error)
	ListEntities(ctx context.Context, tenantID uint, entityTypeID *uint, query string, limit int) ([]Entity, error)
	UpdateEntity(ctx context.Context, tenantID uint, ci string, name, status *string) (Entity, error)
	// DeleteEntity removes the entity row and its stored values in one
	// transaction. Relations touching the CI stay behind.
	DeleteEntity(ctx context.Context, tenantID uint, ci string) error

	// UpsertValues applies every slot write atomically; each write replaces the
	// existing row for its (tenant, ci, attribute, slot) key in place.
	UpsertValues(ctx context.Context, tenantID uint, ci string, writes []ValueWrite) error
	// ValuesForCI fetches slot-1 values for the given attributes, one batched
	// query per data-type bucket, keyed by attribute id.
	ValuesForCI(ctx context.Context, tenantID uint, ci string, attrs []Attribute) (map[uint]Value, error)

	// EnsureRelation inserts the relation or returns the existing row for the
	// same (tenant, type, src, dst) tuple.
	EnsureRelation(ctx context.Context, value Relation) (Relation, error)
	DeleteRelation(ctx context.Context, tenantID, id uint) error
	// ListRelationsTouching returns relations where either endpoint is in cis.
	ListRelationsTouching(ctx context.Context, tenantID uint, cis []string) ([]Relation, error)

	ListGraphEntities(ctx context.Context, tenantID uint, entityTypeIDs []uint, cis []string, limit int) ([]Entity, error)
	ListEntitiesByCIs(ctx context.Context, tenantID uint, cis []string) ([]Entity, error)

	SaveLayout(ctx context.Context, tenantID uint, username, canvas string, positions map[string]Position) error
	GetLayout(ctx context.Context, tenantID uint, username, canvas string) (map[string]Position, error)
}
