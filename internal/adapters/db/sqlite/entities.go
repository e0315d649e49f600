package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/dramseie/repweb-sub001/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateEntityWithValues(ctx context.Context, value domain.Entity, writes []domain.ValueWrite) (domain.Entity, error) {
	m := EntityModel{
		TenantID:     value.TenantID,
		CI:           value.CI,
		EntityTypeID: value.EntityTypeID,
		Name:         value.Name,
		Status:       defaultString(value.Status, "active"),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return upsertValuesTx(tx, value.TenantID, value.CI, writes)
	})
	if err != nil {
		return domain.Entity{}, err
	}
	return entityFromModel(m), nil
}

func (r *Repository) GetEntityByCI(ctx context.Context, tenantID uint, ci string) (domain.Entity, error) {
	var m EntityModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND ci = ?", tenantID, ci).First(&m).Error; err != nil {
		return domain.Entity{}, notFound(err)
	}
	return entityFromModel(m), nil
}

func (r *Repository) ListEntities(ctx context.Context, tenantID uint, entityTypeID *uint, query string, limit int) ([]domain.Entity, error) {
	q := r.db.WithContext(ctx).Model(&EntityModel{}).Where("tenant_id = ?", tenantID)
	if entityTypeID != nil {
		q = q.Where("entity_type_id = ?", *entityTypeID)
	}
	if strings.TrimSpace(query) != "" {
		like := "%" + strings.TrimSpace(query) + "%"
		q = q.Where("name LIKE ? OR ci LIKE ?", like, like)
	}
	rows := make([]EntityModel, 0)
	if err := q.Order("ci ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Entity, 0, len(rows))
	for _, m := range rows {
		result = append(result, entityFromModel(m))
	}
	return result, nil
}

func (r *Repository) UpdateEntity(ctx context.Context, tenantID uint, ci string, name, status *string) (domain.Entity, error) {
	var m EntityModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND ci = ?", tenantID, ci).First(&m).Error; err != nil {
		return domain.Entity{}, notFound(err)
	}
	updates := map[string]any{}
	if name != nil {
		updates["name"] = *name
	}
	if status != nil {
		updates["status"] = *status
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&m).Updates(updates).Error; err != nil {
			return domain.Entity{}, err
		}
	}
	return entityFromModel(m), nil
}

func (r *Repository) DeleteEntity(ctx context.Context, tenantID uint, ci string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("tenant_id = ? AND ci = ?", tenantID, ci).Delete(&EntityModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		for _, table := range valueTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE tenant_id = ? AND entity_ci = ?", tenantID, ci).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) EnsureRelation(ctx context.Context, value domain.Relation) (domain.Relation, error) {
	m := RelationModel{
		TenantID:       value.TenantID,
		RelationTypeID: value.RelationTypeID,
		SrcCI:          value.SrcCI,
		DstCI:          value.DstCI,
		ValidFrom:      value.ValidFrom,
		ValidTo:        value.ValidTo,
		Note:           value.Note,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "relation_type_id"},
			{Name: "src_ci"},
			{Name: "dst_ci"},
		},
		DoNothing: true,
	}).Create(&m).Error
	if err != nil {
		return domain.Relation{}, err
	}
	if m.ID == 0 {
		// Conflict path: the tuple already exists, return its row.
		if err := r.db.WithContext(ctx).
			Where("tenant_id = ? AND relation_type_id = ? AND src_ci = ? AND dst_ci = ?",
				value.TenantID, value.RelationTypeID, value.SrcCI, value.DstCI).
			First(&m).Error; err != nil {
			return domain.Relation{}, notFound(err)
		}
	}
	return relationFromModel(m), nil
}

func (r *Repository) DeleteRelation(ctx context.Context, tenantID, id uint) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&RelationModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type relationRow struct {
	ID             uint
	TenantID       uint
	RelationTypeID uint
	TypeCode       string
	TypeLabel      string
	SrcCI          string `gorm:"column:src_ci"`
	DstCI          string `gorm:"column:dst_ci"`
	ValidFrom      *time.Time
	ValidTo        *time.Time
	Note           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Repository) ListRelationsTouching(ctx context.Context, tenantID uint, cis []string) ([]domain.Relation, error) {
	if len(cis) == 0 {
		return nil, nil
	}
	rows := make([]relationRow, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT rl.id,
       rl.tenant_id,
       rl.relation_type_id,
       rt.code AS type_code,
       rt.label AS type_label,
       rl.src_ci,
       rl.dst_ci,
       rl.valid_from,
       rl.valid_to,
       rl.note,
       rl.created_at,
       rl.updated_at
FROM relations rl
LEFT JOIN relation_types rt ON rt.id = rl.relation_type_id
WHERE rl.tenant_id = ? AND (rl.src_ci IN ? OR rl.dst_ci IN ?)
ORDER BY rl.id ASC
`, tenantID, cis, cis).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.Relation, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Relation{
			ID:             m.ID,
			TenantID:       m.TenantID,
			RelationTypeID: m.RelationTypeID,
			TypeCode:       m.TypeCode,
			TypeLabel:      m.TypeLabel,
			SrcCI:          m.SrcCI,
			DstCI:          m.DstCI,
			ValidFrom:      m.ValidFrom,
			ValidTo:        m.ValidTo,
			Note:           m.Note,
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
		})
	}
	return result, nil
}

type entityRow struct {
	ID           uint
	TenantID     uint
	CI           string `gorm:"column:ci"`
	EntityTypeID uint
	TypeCode     string
	Name         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Repository) ListGraphEntities(ctx context.Context, tenantID uint, entityTypeIDs []uint, cis []string, limit int) ([]domain.Entity, error) {
	var sb strings.Builder
	sb.WriteString(`
SELECT e.id,
       e.tenant_id,
       e.ci,
       e.entity_type_id,
       t.code AS type_code,
       e.name,
       e.status,
       e.created_at,
       e.updated_at
FROM entities e
LEFT JOIN entity_types t ON t.id = e.entity_type_id
WHERE e.tenant_id = ?`)
	args := []any{tenantID}
	if len(entityTypeIDs) > 0 {
		sb.WriteString(" AND e.entity_type_id IN ?")
		args = append(args, entityTypeIDs)
	}
	if len(cis) > 0 {
		sb.WriteString(" AND e.ci IN ?")
		args = append(args, cis)
	}
	sb.WriteString(" ORDER BY e.ci ASC LIMIT ?")
	args = append(args, limit)

	rows := make([]entityRow, 0)
	if err := r.db.WithContext(ctx).Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return entitiesFromRows(rows), nil
}

func (r *Repository) ListEntitiesByCIs(ctx context.Context, tenantID uint, cis []string) ([]domain.Entity, error) {
	if len(cis) == 0 {
		return nil, nil
	}
	rows := make([]entityRow, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT e.id,
       e.tenant_id,
       e.ci,
       e.entity_type_id,
       t.code AS type_code,
       e.name,
       e.status,
       e.created_at,
       e.updated_at
FROM entities e
LEFT JOIN entity_types t ON t.id = e.entity_type_id
WHERE e.tenant_id = ? AND e.ci IN ?
ORDER BY e.ci ASC
`, tenantID, cis).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return entitiesFromRows(rows), nil
}

func (r *Repository) SaveLayout(ctx context.Context, tenantID uint, username, canvas string, positions map[string]domain.Position) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for ci, pos := range positions {
			m := CanvasLayoutModel{TenantID: tenantID, Username: username, Canvas: canvas, CI: ci, X: pos.X, Y: pos.Y}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "tenant_id"},
					{Name: "username"},
					{Name: "canvas"},
					{Name: "ci"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"x", "y", "updated_at"}),
			}).Create(&m).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetLayout(ctx context.Context, tenantID uint, username, canvas string) (map[string]domain.Position, error) {
	rows := make([]CanvasLayoutModel, 0)
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND username = ? AND canvas = ?", tenantID, username, canvas).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]domain.Position, len(rows))
	for _, m := range rows {
		result[m.CI] = domain.Position{X: m.X, Y: m.Y}
	}
	return result, nil
}

func entityFromModel(m EntityModel) domain.Entity {
	return domain.Entity{
		ID:           m.ID,
		TenantID:     m.TenantID,
		CI:           m.CI,
		EntityTypeID: m.EntityTypeID,
		Name:         m.Name,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func entitiesFromRows(rows []entityRow) []domain.Entity {
	result := make([]domain.Entity, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Entity{
			ID:           m.ID,
			TenantID:     m.TenantID,
			CI:           m.CI,
			EntityTypeID: m.EntityTypeID,
			TypeCode:     m.TypeCode,
			Name:         m.Name,
			Status:       m.Status,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
		})
	}
	return result
}

func relationFromModel(m RelationModel) domain.Relation {
	return domain.Relation{
		ID:             m.ID,
		TenantID:       m.TenantID,
		RelationTypeID: m.RelationTypeID,
		SrcCI:          m.SrcCI,
		DstCI:          m.DstCI,
		ValidFrom:      m.ValidFrom,
		ValidTo:        m.ValidTo,
		Note:           m.Note,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
