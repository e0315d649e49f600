package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/domain"
)

var (
	codeRe     = regexp.MustCompile(`^[a-z0-9_]{2,64}$`)
	attrCodeRe = regexp.MustCompile(`^[a-z0-9_.]{2,64}$`)
)

// CatalogService manages the schema metadata: tenants, entity types,
// attributes, type-attribute mappings and relation types.
type CatalogService struct {
	repo domain.Repository
}

func NewCatalogService(repo domain.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ResolveTenant accepts a tenant code or a numeric id.
func (s *CatalogService) ResolveTenant(ctx context.Context, ref string) (domain.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Tenant{}, domain.Validationf("tenant is required")
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.repo.GetTenantByID(ctx, uint(id))
	}
	return s.repo.GetTenantByCode(ctx, ref)
}

func (s *CatalogService) CreateTenant(ctx context.Context, code, name string) (domain.Tenant, error) {
	if !codeRe.MatchString(code) {
		return domain.Tenant{}, domain.Validationf("tenant code %q must match %s", code, codeRe.String())
	}
	if strings.TrimSpace(name) == "" {
		return domain.Tenant{}, domain.Validationf("tenant name is required")
	}
	if _, err := s.repo.GetTenantByCode(ctx, code); err == nil {
		return domain.Tenant{}, domain.Conflictf("tenant code %q already exists", code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Tenant{}, err
	}
	return s.repo.CreateTenant(ctx, domain.Tenant{Code: code, Name: name})
}

func (s *CatalogService) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *CatalogService) UpdateTenant(ctx context.Context, ref, name string) (domain.Tenant, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Tenant{}, domain.Validationf("tenant name is required")
	}
	tenant, err := s.ResolveTenant(ctx, ref)
	if err != nil {
		return domain.Tenant{}, err
	}
	return s.repo.UpdateTenant(ctx, tenant.ID, name)
}

func (s *CatalogService) DeleteTenant(ctx context.Context, ref string) error {
	tenant, err := s.ResolveTenant(ctx, ref)
	if err != nil {
		return err
	}
	counts, err := s.repo.CountTenantDependents(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if blocked := nonZero(counts); len(blocked) > 0 {
		return &domain.DependencyError{Resource: fmt.Sprintf("tenant %q", tenant.Code), Counts: blocked}
	}
	return s.repo.DeleteTenant(ctx, tenant.ID)
}

func (s *CatalogService) CreateEntityType(ctx context.Context, tenantRef, code, name, icon string) (domain.EntityType, error) {
	if !codeRe.MatchString(code) {
		return domain.EntityType{}, domain.Validationf("entity type code %q must match %s", code, codeRe.String())
	}
	if strings.TrimSpace(name) == "" {
		return domain.EntityType{}, domain.Validationf("entity type name is required")
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.EntityType{}, err
	}
	if _, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, code); err == nil {
		return domain.EntityType{}, domain.Conflictf("entity type code %q already exists", code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.EntityType{}, err
	}
	return s.repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: code, Name: name, Icon: icon})
}

func (s *CatalogService) ListEntityTypes(ctx context.Context, tenantRef string) ([]domain.EntityType, error) {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntityTypes(ctx, tenant.ID)
}

func (s *CatalogService) UpdateEntityType(ctx context.Context, tenantRef, code, name, icon string) (domain.EntityType, error) {
	if strings.TrimSpace(name) == "" {
		return domain.EntityType{}, domain.Validationf("entity type name is required")
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.EntityType{}, err
	}
	et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, code)
	if err != nil {
		return domain.EntityType{}, err
	}
	return s.repo.UpdateEntityType(ctx, tenant.ID, et.ID, name, icon)
}

func (s *CatalogService) DeleteEntityType(ctx context.Context, tenantRef, code string) error {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, code)
	if err != nil {
		return err
	}
	counts, err := s.repo.CountEntityTypeDependents(ctx, et.ID)
	if err != nil {
		return err
	}
	if blocked := nonZero(counts); len(blocked) > 0 {
		return &domain.DependencyError{Resource: fmt.Sprintf("entity type %q", code), Counts: blocked}
	}
	return s.repo.DeleteEntityType(ctx, et.ID)
}

func (s *CatalogService) CreateAttribute(ctx context.Context, tenantRef string, value domain.Attribute) (domain.Attribute, error) {
	if !attrCodeRe.MatchString(value.Code) {
		return domain.Attribute{}, domain.Validationf("attribute code %q must match %s", value.Code, attrCodeRe.String())
	}
	if strings.TrimSpace(value.Label) == "" {
		return domain.Attribute{}, domain.Validationf("attribute label is required")
	}
	if !value.DataType.Valid() {
		return domain.Attribute{}, domain.Validationf("unknown data type %q", value.DataType)
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Attribute{}, err
	}
	if _, err := s.repo.GetAttributeByCode(ctx, tenant.ID, value.Code); err == nil {
		return domain.Attribute{}, domain.Conflictf("attribute code %q already exists", value.Code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Attribute{}, err
	}
	value.TenantID = tenant.ID
	if value.Visibility == "" {
		value.Visibility = "default"
	}
	return s.repo.CreateAttribute(ctx, value)
}

func (s *CatalogService) ListAttributes(ctx context.Context, tenantRef string) ([]domain.Attribute, error) {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAttributes(ctx, tenant.ID)
}

// UpdateAttribute changes label and flags. The data type is immutable: stored
// values live in the table matching the declared type.
func (s *CatalogService) UpdateAttribute(ctx context.Context, tenantRef, code string, value domain.Attribute) (domain.Attribute, error) {
	if strings.TrimSpace(value.Label) == "" {
		return domain.Attribute{}, domain.Validationf("attribute label is required")
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Attribute{}, err
	}
	attr, err := s.repo.GetAttributeByCode(ctx, tenant.ID, code)
	if err != nil {
		return domain.Attribute{}, err
	}
	return s.repo.UpdateAttribute(ctx, tenant.ID, attr.ID, value)
}

func (s *CatalogService) DeleteAttribute(ctx context.Context, tenantRef, code string) error {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	attr, err := s.repo.GetAttributeByCode(ctx, tenant.ID, code)
	if err != nil {
		return err
	}
	counts, err := s.repo.CountAttributeDependents(ctx, attr.ID)
	if err != nil {
		return err
	}
	if blocked := nonZero(counts); len(blocked) > 0 {
		return &domain.DependencyError{Resource: fmt.Sprintf("attribute %q", code), Counts: blocked}
	}
	return s.repo.DeleteAttribute(ctx, attr.ID)
}

func (s *CatalogService) MapAttribute(ctx context.Context, tenantRef, typeCode, attrCode string, required bool, cardinality, defaultValue string, displayOrder int) (domain.TypeAttribute, error) {
	cardinality = defaultIfEmpty(cardinality, domain.CardinalityOne)
	if cardinality != domain.CardinalityOne && cardinality != domain.CardinalityMany {
		return domain.TypeAttribute{}, domain.Validationf("cardinality must be %q or %q", domain.CardinalityOne, domain.CardinalityMany)
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.TypeAttribute{}, err
	}
	et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, typeCode)
	if err != nil {
		return domain.TypeAttribute{}, err
	}
	attr, err := s.repo.GetAttributeByCode(ctx, tenant.ID, attrCode)
	if err != nil {
		return domain.TypeAttribute{}, err
	}
	existing, err := s.repo.ListTypeAttributes(ctx, tenant.ID, et.ID)
	if err != nil {
		return domain.TypeAttribute{}, err
	}
	for _, ta := range existing {
		if ta.AttributeID == attr.ID {
			return domain.TypeAttribute{}, domain.Conflictf("attribute %q is already mapped to type %q", attrCode, typeCode)
		}
	}
	return s.repo.MapTypeAttribute(ctx, domain.TypeAttribute{
		TenantID:     tenant.ID,
		EntityTypeID: et.ID,
		AttributeID:  attr.ID,
		Required:     required,
		Cardinality:  cardinality,
		DefaultValue: defaultValue,
		DisplayOrder: displayOrder,
	})
}

func (s *CatalogService) ListTypeAttributes(ctx context.Context, tenantRef, typeCode string) ([]domain.AttributeSchema, error) {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, typeCode)
	if err != nil {
		return nil, err
	}
	return s.repo.AttributeSchemaForType(ctx, tenant.ID, et.ID)
}

func (s *CatalogService) UnmapAttribute(ctx context.Context, tenantRef string, mappingID uint) error {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	return s.repo.UnmapTypeAttribute(ctx, tenant.ID, mappingID)
}

func (s *CatalogService) CreateRelationType(ctx context.Context, tenantRef, code, label string, directed bool) (domain.RelationType, error) {
	if !codeRe.MatchString(code) {
		return domain.RelationType{}, domain.Validationf("relation type code %q must match %s", code, codeRe.String())
	}
	if strings.TrimSpace(label) == "" {
		return domain.RelationType{}, domain.Validationf("relation type label is required")
	}
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.RelationType{}, err
	}
	if _, err := s.repo.GetRelationTypeByCode(ctx, tenant.ID, code); err == nil {
		return domain.RelationType{}, domain.Conflictf("relation type code %q already exists", code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.RelationType{}, err
	}
	return s.repo.CreateRelationType(ctx, domain.RelationType{TenantID: tenant.ID, Code: code, Label: label, Directed: directed})
}

func (s *CatalogService) ListRelationTypes(ctx context.Context, tenantRef string) ([]domain.RelationType, error) {
	tenant, err := s.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRelationTypes(ctx, tenant.ID)
}

func nonZero(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64)
	for kind, n := range counts {
		if n > 0 {
			out[kind] = n
		}
	}
	return out
}

func defaultIfEmpty(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
