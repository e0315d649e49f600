package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/dramseie/repweb-sub001/internal/domain"
	"gorm.io/gorm"
)

// valueTables maps each data type to its physical table. The partitioning is
// the storage-level encoding of the Value tagged union.
var valueTables = map[domain.DataType]string{
	domain.DataTypeString:    "attr_values_string",
	domain.DataTypeText:      "attr_values_text",
	domain.DataTypeIP:        "attr_values_ip",
	domain.DataTypeCIDR:      "attr_values_cidr",
	domain.DataTypeInteger:   "attr_values_integer",
	domain.DataTypeDecimal:   "attr_values_decimal",
	domain.DataTypeBoolean:   "attr_values_boolean",
	domain.DataTypeDatetime:  "attr_values_datetime",
	domain.DataTypeJSON:      "attr_values_json",
	domain.DataTypeReference: "attr_values_reference",
}

func valueColumn(kind domain.DataType) string {
	if kind == domain.DataTypeReference {
		return "target_ci"
	}
	return "value"
}

func bindValue(v domain.Value) (any, error) {
	switch v.Kind {
	case domain.DataTypeInteger:
		return v.Int, nil
	case domain.DataTypeDecimal:
		return v.Float, nil
	case domain.DataTypeBoolean:
		if v.Bool {
			return int64(1), nil
		}
		return int64(0), nil
	case domain.DataTypeString, domain.DataTypeText, domain.DataTypeIP, domain.DataTypeCIDR,
		domain.DataTypeDatetime, domain.DataTypeJSON, domain.DataTypeReference:
		return v.Text, nil
	}
	return nil, fmt.Errorf("unknown data type %q", v.Kind)
}

func (r *Repository) UpsertValues(ctx context.Context, tenantID uint, ci string, writes []domain.ValueWrite) error {
	if len(writes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertValuesTx(tx, tenantID, ci, writes)
	})
}

func upsertValuesTx(tx *gorm.DB, tenantID uint, ci string, writes []domain.ValueWrite) error {
	now := time.Now().UTC()
	for _, w := range writes {
		table, ok := valueTables[w.Value.Kind]
		if !ok {
			return fmt.Errorf("unknown data type %q", w.Value.Kind)
		}
		payload, err := bindValue(w.Value)
		if err != nil {
			return err
		}
		col := valueColumn(w.Value.Kind)
		slot := w.Slot
		if slot <= 0 {
			slot = 1
		}
		q := fmt.Sprintf(`
INSERT INTO %s (tenant_id, entity_ci, attribute_id, n, %s, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(tenant_id, entity_ci, attribute_id, n)
DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at`, table, col, col, col)
		if err := tx.Exec(q, tenantID, ci, w.AttributeID, slot, payload, now, now).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ValuesForCI(ctx context.Context, tenantID uint, ci string, attrs []domain.Attribute) (map[uint]domain.Value, error) {
	buckets := make(map[domain.DataType][]uint)
	for _, a := range attrs {
		buckets[a.DataType] = append(buckets[a.DataType], a.ID)
	}

	out := make(map[uint]domain.Value)
	for kind, ids := range buckets {
		table, ok := valueTables[kind]
		if !ok {
			return nil, fmt.Errorf("unknown data type %q", kind)
		}
		q := fmt.Sprintf(
			"SELECT attribute_id, %s AS value FROM %s WHERE tenant_id = ? AND entity_ci = ? AND attribute_id IN ? AND n = 1",
			valueColumn(kind), table)

		switch kind {
		case domain.DataTypeInteger:
			type row struct {
				AttributeID uint
				Value       int64
			}
			rows := make([]row, 0)
			if err := r.db.WithContext(ctx).Raw(q, tenantID, ci, ids).Scan(&rows).Error; err != nil {
				return nil, err
			}
			for _, m := range rows {
				out[m.AttributeID] = domain.IntValue(m.Value)
			}
		case domain.DataTypeDecimal:
			type row struct {
				AttributeID uint
				Value       float64
			}
			rows := make([]row, 0)
			if err := r.db.WithContext(ctx).Raw(q, tenantID, ci, ids).Scan(&rows).Error; err != nil {
				return nil, err
			}
			for _, m := range rows {
				out[m.AttributeID] = domain.FloatValue(m.Value)
			}
		case domain.DataTypeBoolean:
			type row struct {
				AttributeID uint
				Value       int64
			}
			rows := make([]row, 0)
			if err := r.db.WithContext(ctx).Raw(q, tenantID, ci, ids).Scan(&rows).Error; err != nil {
				return nil, err
			}
			for _, m := range rows {
				out[m.AttributeID] = domain.BoolValue(m.Value != 0)
			}
		default:
			type row struct {
				AttributeID uint
				Value       string
			}
			rows := make([]row, 0)
			if err := r.db.WithContext(ctx).Raw(q, tenantID, ci, ids).Scan(&rows).Error; err != nil {
				return nil, err
			}
			for _, m := range rows {
				out[m.AttributeID] = domain.TextValue(kind, m.Value)
			}
		}
	}
	return out, nil
}

func (r *Repository) countValues(ctx context.Context, where string, arg any) (int64, error) {
	var total int64
	for _, table := range valueTables {
		var n int64
		if err := r.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM "+table+" WHERE "+where, arg).Scan(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
