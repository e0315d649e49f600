package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// Repository implements domain.Repository on sqlite through gorm.
type Repository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func (r *Repository) CreateTenant(ctx context.Context, value domain.Tenant) (domain.Tenant, error) {
	m := TenantModel{Code: value.Code, Name: value.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Tenant{}, err
	}
	return tenantFromModel(m), nil
}

func (r *Repository) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows := make([]TenantModel, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Tenant, 0, len(rows))
	for _, m := range rows {
		result = append(result, tenantFromModel(m))
	}
	return result, nil
}

func (r *Repository) GetTenantByID(ctx context.Context, id uint) (domain.Tenant, error) {
	var m TenantModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Tenant{}, notFound(err)
	}
	return tenantFromModel(m), nil
}

func (r *Repository) GetTenantByCode(ctx context.Context, code string) (domain.Tenant, error) {
	var m TenantModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		return domain.Tenant{}, notFound(err)
	}
	return tenantFromModel(m), nil
}

func (r *Repository) UpdateTenant(ctx context.Context, id uint, name string) (domain.Tenant, error) {
	var m TenantModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Tenant{}, notFound(err)
	}
	if err := r.db.WithContext(ctx).Model(&m).Update("name", name).Error; err != nil {
		return domain.Tenant{}, err
	}
	return tenantFromModel(m), nil
}

func (r *Repository) DeleteTenant(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&TenantModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CountTenantDependents(ctx context.Context, id uint) (map[string]int64, error) {
	counts := make(map[string]int64)
	tables := map[string]any{
		"entity_types":   &EntityTypeModel{},
		"relation_types": &RelationTypeModel{},
		"attributes":     &AttributeModel{},
		"entities":       &EntityModel{},
		"relations":      &RelationModel{},
	}
	for kind, model := range tables {
		var n int64
		if err := r.db.WithContext(ctx).Model(model).Where("tenant_id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	values, err := r.countValues(ctx, "tenant_id = ?", id)
	if err != nil {
		return nil, err
	}
	counts["values"] = values
	return counts, nil
}

func (r *Repository) CreateEntityType(ctx context.Context, value domain.EntityType) (domain.EntityType, error) {
	m := EntityTypeModel{TenantID: value.TenantID, Code: value.Code, Name: value.Name, Icon: value.Icon}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.EntityType{}, err
	}
	return entityTypeFromModel(m), nil
}

func (r *Repository) ListEntityTypes(ctx context.Context, tenantID uint) ([]domain.EntityType, error) {
	rows := make([]EntityTypeModel, 0)
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.EntityType, 0, len(rows))
	for _, m := range rows {
		result = append(result, entityTypeFromModel(m))
	}
	return result, nil
}

func (r *Repository) GetEntityTypeByID(ctx context.Context, tenantID, id uint) (domain.EntityType, error) {
	var m EntityTypeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&m).Error; err != nil {
		return domain.EntityType{}, notFound(err)
	}
	return entityTypeFromModel(m), nil
}

func (r *Repository) GetEntityTypeByCode(ctx context.Context, tenantID uint, code string) (domain.EntityType, error) {
	var m EntityTypeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND code = ?", tenantID, code).First(&m).Error; err != nil {
		return domain.EntityType{}, notFound(err)
	}
	return entityTypeFromModel(m), nil
}

func (r *Repository) UpdateEntityType(ctx context.Context, tenantID, id uint, name, icon string) (domain.EntityType, error) {
	var m EntityTypeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&m).Error; err != nil {
		return domain.EntityType{}, notFound(err)
	}
	updates := map[string]any{"name": name, "icon": icon}
	if err := r.db.WithContext(ctx).Model(&m).Updates(updates).Error; err != nil {
		return domain.EntityType{}, err
	}
	return entityTypeFromModel(m), nil
}

func (r *Repository) DeleteEntityType(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&EntityTypeModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CountEntityTypeDependents(ctx context.Context, id uint) (map[string]int64, error) {
	var mapped, entities int64
	if err := r.db.WithContext(ctx).Model(&TypeAttributeModel{}).Where("entity_type_id = ?", id).Count(&mapped).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&EntityModel{}).Where("entity_type_id = ?", id).Count(&entities).Error; err != nil {
		return nil, err
	}
	return map[string]int64{"mapped_attributes": mapped, "entities": entities}, nil
}

func (r *Repository) CreateAttribute(ctx context.Context, value domain.Attribute) (domain.Attribute, error) {
	m := AttributeModel{
		TenantID:   value.TenantID,
		Code:       value.Code,
		Label:      value.Label,
		DataType:   string(value.DataType),
		Searchable: value.Searchable,
		Indexed:    value.Indexed,
		Visibility: value.Visibility,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Attribute{}, err
	}
	return attributeFromModel(m), nil
}

func (r *Repository) ListAttributes(ctx context.Context, tenantID uint) ([]domain.Attribute, error) {
	rows := make([]AttributeModel, 0)
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Attribute, 0, len(rows))
	for _, m := range rows {
		result = append(result, attributeFromModel(m))
	}
	return result, nil
}

func (r *Repository) GetAttributeByCode(ctx context.Context, tenantID uint, code string) (domain.Attribute, error) {
	var m AttributeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND code = ?", tenantID, code).First(&m).Error; err != nil {
		return domain.Attribute{}, notFound(err)
	}
	return attributeFromModel(m), nil
}

func (r *Repository) ResolveAttributes(ctx context.Context, tenantID uint, codes []string) ([]domain.Attribute, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows := make([]AttributeModel, 0, len(codes))
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND code IN ?", tenantID, codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Attribute, 0, len(rows))
	for _, m := range rows {
		result = append(result, attributeFromModel(m))
	}
	return result, nil
}

func (r *Repository) UpdateAttribute(ctx context.Context, tenantID, id uint, value domain.Attribute) (domain.Attribute, error) {
	var m AttributeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&m).Error; err != nil {
		return domain.Attribute{}, notFound(err)
	}
	updates := map[string]any{
		"label":      value.Label,
		"searchable": value.Searchable,
		"indexed":    value.Indexed,
		"visibility": value.Visibility,
	}
	if err := r.db.WithContext(ctx).Model(&m).Updates(updates).Error; err != nil {
		return domain.Attribute{}, err
	}
	return attributeFromModel(m), nil
}

func (r *Repository) DeleteAttribute(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&AttributeModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CountAttributeDependents(ctx context.Context, id uint) (map[string]int64, error) {
	var mappings int64
	if err := r.db.WithContext(ctx).Model(&TypeAttributeModel{}).Where("attribute_id = ?", id).Count(&mappings).Error; err != nil {
		return nil, err
	}
	values, err := r.countValues(ctx, "attribute_id = ?", id)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"mappings": mappings, "values": values}, nil
}

func (r *Repository) MapTypeAttribute(ctx context.Context, value domain.TypeAttribute) (domain.TypeAttribute, error) {
	m := TypeAttributeModel{
		TenantID:     value.TenantID,
		EntityTypeID: value.EntityTypeID,
		AttributeID:  value.AttributeID,
		Required:     value.Required,
		Cardinality:  value.Cardinality,
		DefaultValue: value.DefaultValue,
		DisplayOrder: value.DisplayOrder,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.TypeAttribute{}, err
	}
	return typeAttributeFromModel(m), nil
}

func (r *Repository) ListTypeAttributes(ctx context.Context, tenantID, entityTypeID uint) ([]domain.TypeAttribute, error) {
	rows := make([]TypeAttributeModel, 0)
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type_id = ?", tenantID, entityTypeID).
		Order("display_order ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.TypeAttribute, 0, len(rows))
	for _, m := range rows {
		result = append(result, typeAttributeFromModel(m))
	}
	return result, nil
}

func (r *Repository) UnmapTypeAttribute(ctx context.Context, tenantID, id uint) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&TypeAttributeModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) AttributeSchemaForType(ctx context.Context, tenantID, entityTypeID uint) ([]domain.AttributeSchema, error) {
	type row struct {
		ID           uint
		TenantID     uint
		Code         string
		Label        string
		DataType     string
		Searchable   bool
		Indexed      bool
		Visibility   string
		Required     bool
		Cardinality  string
		DefaultValue string
		DisplayOrder int
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT a.id,
       a.tenant_id,
       a.code,
       a.label,
       a.data_type,
       a.searchable,
       a.indexed,
       a.visibility,
       ta.required,
       ta.cardinality,
       ta.default_value,
       ta.display_order
FROM type_attributes ta
JOIN attributes a ON a.id = ta.attribute_id
WHERE ta.tenant_id = ? AND ta.entity_type_id = ?
ORDER BY ta.display_order ASC, a.code ASC
`, tenantID, entityTypeID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.AttributeSchema, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.AttributeSchema{
			Attribute: domain.Attribute{
				ID:         m.ID,
				TenantID:   m.TenantID,
				Code:       m.Code,
				Label:      m.Label,
				DataType:   domain.DataType(m.DataType),
				Searchable: m.Searchable,
				Indexed:    m.Indexed,
				Visibility: m.Visibility,
			},
			Required:     m.Required,
			Cardinality:  m.Cardinality,
			DefaultValue: m.DefaultValue,
			DisplayOrder: m.DisplayOrder,
		})
	}
	return result, nil
}

func (r *Repository) CreateRelationType(ctx context.Context, value domain.RelationType) (domain.RelationType, error) {
	m := RelationTypeModel{TenantID: value.TenantID, Code: value.Code, Label: value.Label, Directed: value.Directed}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.RelationType{}, err
	}
	return relationTypeFromModel(m), nil
}

func (r *Repository) ListRelationTypes(ctx context.Context, tenantID uint) ([]domain.RelationType, error) {
	rows := make([]RelationTypeModel, 0)
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.RelationType, 0, len(rows))
	for _, m := range rows {
		result = append(result, relationTypeFromModel(m))
	}
	return result, nil
}

func (r *Repository) GetRelationTypeByCode(ctx context.Context, tenantID uint, code string) (domain.RelationType, error) {
	var m RelationTypeModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND code = ?", tenantID, code).First(&m).Error; err != nil {
		return domain.RelationType{}, notFound(err)
	}
	return relationTypeFromModel(m), nil
}

func tenantFromModel(m TenantModel) domain.Tenant {
	return domain.Tenant{ID: m.ID, Code: m.Code, Name: m.Name, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func entityTypeFromModel(m EntityTypeModel) domain.EntityType {
	return domain.EntityType{ID: m.ID, TenantID: m.TenantID, Code: m.Code, Name: m.Name, Icon: m.Icon, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func attributeFromModel(m AttributeModel) domain.Attribute {
	return domain.Attribute{
		ID:         m.ID,
		TenantID:   m.TenantID,
		Code:       m.Code,
		Label:      m.Label,
		DataType:   domain.DataType(m.DataType),
		Searchable: m.Searchable,
		Indexed:    m.Indexed,
		Visibility: m.Visibility,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func typeAttributeFromModel(m TypeAttributeModel) domain.TypeAttribute {
	return domain.TypeAttribute{
		ID:           m.ID,
		TenantID:     m.TenantID,
		EntityTypeID: m.EntityTypeID,
		AttributeID:  m.AttributeID,
		Required:     m.Required,
		Cardinality:  m.Cardinality,
		DefaultValue: m.DefaultValue,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func relationTypeFromModel(m RelationTypeModel) domain.RelationType {
	return domain.RelationType{ID: m.ID, TenantID: m.TenantID, Code: m.Code, Label: m.Label, Directed: m.Directed, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
