package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/domain"
	"github.com/google/uuid"
)

// InventoryService manages configuration items and their typed attribute
// values.
type InventoryService struct {
	repo    domain.Repository
	catalog *CatalogService
}

func NewInventoryService(repo domain.Repository) *InventoryService {
	return &InventoryService{repo: repo, catalog: NewCatalogService(repo)}
}

// CreateEntity inserts a CI of the given type. When ci is empty a key is
// generated from the type code plus a random hex token. Initial attribute
// values, if any, are written in the same transaction as the entity row.
func (s *InventoryService) CreateEntity(ctx context.Context, tenantRef, typeCode, ci, name string, attrs map[string]any) (domain.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Entity{}, domain.Validationf("entity name is required")
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Entity{}, err
	}
	et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, typeCode)
	if err != nil {
		return domain.Entity{}, err
	}

	ci = strings.TrimSpace(ci)
	if ci == "" {
		ci = generateCI(typeCode)
	} else if _, err := s.repo.GetEntityByCI(ctx, tenant.ID, ci); err == nil {
		return domain.Entity{}, domain.Conflictf("ci %q already exists", ci)
	}

	writes, err := s.coerceWrites(ctx, tenant.ID, attrs)
	if err != nil {
		return domain.Entity{}, err
	}

	entity, err := s.repo.CreateEntityWithValues(ctx, domain.Entity{
		TenantID:     tenant.ID,
		CI:           ci,
		EntityTypeID: et.ID,
		Name:         name,
		Status:       "active",
	}, writes)
	if err != nil {
		return domain.Entity{}, err
	}
	entity.TypeCode = et.Code
	return entity, nil
}

func (s *InventoryService) GetEntity(ctx context.Context, tenantRef, ci string) (domain.Entity, error) {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Entity{}, err
	}
	return s.repo.GetEntityByCI(ctx, tenant.ID, ci)
}

func (s *InventoryService) ListEntities(ctx context.Context, tenantRef, typeCode, query string, limit int) ([]domain.Entity, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	var typeID *uint
	if strings.TrimSpace(typeCode) != "" {
		et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, typeCode)
		if err != nil {
			return nil, err
		}
		typeID = &et.ID
	}
	return s.repo.ListEntities(ctx, tenant.ID, typeID, query, limit)
}

// UpdateEntity renames and/or changes the status of a CI. Nil fields keep the
// stored value.
func (s *InventoryService) UpdateEntity(ctx context.Context, tenantRef, ci string, name, status *string) (domain.Entity, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return domain.Entity{}, domain.Validationf("entity name must not be empty")
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Entity{}, err
	}
	if _, err := s.repo.UpdateEntity(ctx, tenant.ID, ci, name, status); err != nil {
		return domain.Entity{}, err
	}
	return s.repo.GetEntityByCI(ctx, tenant.ID, ci)
}

func (s *InventoryService) DeleteEntity(ctx context.Context, tenantRef, ci string) error {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	return s.repo.DeleteEntity(ctx, tenant.ID, ci)
}

// UpsertAttributes writes {code: raw} values for a CI. All codes are resolved
// in one query, each raw value is coerced per its attribute's data type, and
// the whole batch is applied in one transaction. Latest write wins per slot.
func (s *InventoryService) UpsertAttributes(ctx context.Context, tenantRef, ci string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetEntityByCI(ctx, tenant.ID, ci); err != nil {
		return err
	}
	writes, err := s.coerceWrites(ctx, tenant.ID, values)
	if err != nil {
		return err
	}
	return s.repo.UpsertValues(ctx, tenant.ID, ci, writes)
}

// CIAttributes answers "what attributes does this CI's type declare, and what
// are the current values": one query for the schema, one batched fetch per
// data-type bucket for the values, merged by attribute id.
func (s *InventoryService) CIAttributes(ctx context.Context, tenantRef, ci string) ([]domain.CIAttribute, error) {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	entity, err := s.repo.GetEntityByCI(ctx, tenant.ID, ci)
	if err != nil {
		return nil, err
	}
	schema, err := s.repo.AttributeSchemaForType(ctx, tenant.ID, entity.EntityTypeID)
	if err != nil {
		return nil, err
	}
	attrs := make([]domain.Attribute, 0, len(schema))
	for _, row := range schema {
		attrs = append(attrs, row.Attribute)
	}
	values, err := s.repo.ValuesForCI(ctx, tenant.ID, ci, attrs)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CIAttribute, 0, len(schema))
	for _, row := range schema {
		item := domain.CIAttribute{
			AttributeID:  row.ID,
			Code:         row.Code,
			Label:        row.Label,
			DataType:     row.DataType,
			Required:     row.Required,
			Cardinality:  row.Cardinality,
			DisplayOrder: row.DisplayOrder,
		}
		if v, ok := values[row.ID]; ok {
			item.Value = v.Native()
			item.HasValue = true
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *InventoryService) coerceWrites(ctx context.Context, tenantID uint, values map[string]any) ([]domain.ValueWrite, error) {
	if len(values) == 0 {
		return nil, nil
	}
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	attrs, err := s.repo.ResolveAttributes(ctx, tenantID, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]domain.Attribute, len(attrs))
	for _, a := range attrs {
		byCode[a.Code] = a
	}

	writes := make([]domain.ValueWrite, 0, len(codes))
	for _, code := range codes {
		attr, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("attribute %q: %w", code, domain.ErrNotFound)
		}
		v, err := coerceValue(attr.DataType, values[code])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", code, err)
		}
		writes = append(writes, domain.ValueWrite{AttributeID: attr.ID, Slot: 1, Value: v})
	}
	return writes, nil
}

func generateCI(typeCode string) string {
	prefix := strings.ToUpper(typeCode)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "-" + token
}
