package sqlite

import "time"

type TenantModel struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TenantModel) TableName() string { return "tenants" }

type EntityTypeModel struct {
	ID        uint   `gorm:"primaryKey"`
	TenantID  uint   `gorm:"not null;index:idx_entity_type_code,unique"`
	Code      string `gorm:"not null;index:idx_entity_type_code,unique"`
	Name      string `gorm:"not null"`
	Icon      string `gorm:"not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EntityTypeModel) TableName() string { return "entity_types" }

type AttributeModel struct {
	ID         uint   `gorm:"primaryKey"`
	TenantID   uint   `gorm:"not null;index:idx_attribute_code,unique"`
	Code       string `gorm:"not null;index:idx_attribute_code,unique"`
	Label      string `gorm:"not null"`
	DataType   string `gorm:"not null"`
	Searchable bool   `gorm:"not null;default:false"`
	Indexed    bool   `gorm:"not null;default:false"`
	Visibility string `gorm:"not null;default:'default'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AttributeModel) TableName() string { return "attributes" }

type TypeAttributeModel struct {
	ID           uint   `gorm:"primaryKey"`
	TenantID     uint   `gorm:"not null;index"`
	EntityTypeID uint   `gorm:"not null;index:idx_type_attribute,unique"`
	AttributeID  uint   `gorm:"not null;index:idx_type_attribute,unique"`
	Required     bool   `gorm:"not null;default:false"`
	Cardinality  string `gorm:"not null;default:'one'"`
	DefaultValue string `gorm:"not null;default:''"`
	DisplayOrder int    `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TypeAttributeModel) TableName() string { return "type_attributes" }

type RelationTypeModel struct {
	ID        uint   `gorm:"primaryKey"`
	TenantID  uint   `gorm:"not null;index:idx_relation_type_code,unique"`
	Code      string `gorm:"not null;index:idx_relation_type_code,unique"`
	Label     string `gorm:"not null"`
	Directed  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RelationTypeModel) TableName() string { return "relation_types" }

type EntityModel struct {
	ID           uint   `gorm:"primaryKey"`
	TenantID     uint   `gorm:"not null;index:idx_entity_ci,unique"`
	CI           string `gorm:"column:ci;not null;index:idx_entity_ci,unique"`
	EntityTypeID uint   `gorm:"not null;index"`
	Name         string `gorm:"not null;index"`
	Status       string `gorm:"not null;default:'active'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (EntityModel) TableName() string { return "entities" }

type RelationModel struct {
	ID             uint   `gorm:"primaryKey"`
	TenantID       uint   `gorm:"not null;index:idx_relation_tuple,unique"`
	RelationTypeID uint   `gorm:"not null;index:idx_relation_tuple,unique"`
	SrcCI          string `gorm:"column:src_ci;not null;index:idx_relation_tuple,unique;index:idx_relation_src"`
	DstCI          string `gorm:"column:dst_ci;not null;index:idx_relation_tuple,unique;index:idx_relation_dst"`
	ValidFrom      *time.Time
	ValidTo        *time.Time
	Note           string `gorm:"not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (RelationModel) TableName() string { return "relations" }

type CanvasLayoutModel struct {
	ID        uint    `gorm:"primaryKey"`
	TenantID  uint    `gorm:"not null;index:idx_canvas_layout,unique"`
	Username  string  `gorm:"not null;index:idx_canvas_layout,unique"`
	Canvas    string  `gorm:"not null;index:idx_canvas_layout,unique"`
	CI        string  `gorm:"column:ci;not null;index:idx_canvas_layout,unique"`
	X         float64 `gorm:"not null;default:0"`
	Y         float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CanvasLayoutModel) TableName() string { return "canvas_layouts" }
