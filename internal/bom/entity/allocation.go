package entity

import (
	"time"
)

// AllocationEntry 分配台账：一个BOM对一个物料的累计预留
// net_qty = on_hand_snapshot - allocation，始终 >= 0
type AllocationEntry struct {
	ID               string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BomNumber        string    `json:"bom_number" gorm:"size:64;not null;uniqueIndex:uk_alloc_bom_item,priority:1;index"`
	ItemCode         string    `json:"item_code" gorm:"size:64;not null;uniqueIndex:uk_alloc_bom_item,priority:2;index"`
	ItemLevel        int       `json:"item_level" gorm:"not null;default:1"`
	OnHandSnapshot   float64   `json:"on_hand_snapshot" gorm:"type:decimal(12,4);not null;default:0"` // 首次预留时的库存快照
	ExtendedQuantity float64   `json:"extended_quantity" gorm:"type:decimal(12,4);not null;default:1"`
	Allocation       float64   `json:"allocation" gorm:"type:decimal(12,4);not null;default:0"` // 累计预留数量
	NetQty           float64   `json:"net_qty" gorm:"type:decimal(12,4);not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (AllocationEntry) TableName() string {
	return "bom_allocations"
}

// PlannedGood 已计划成品：有台账预留的BOM在此记录计划数量
type PlannedGood struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BomNumber  string    `json:"bom_number" gorm:"size:64;not null;uniqueIndex"`
	PlannedQty float64   `json:"planned_qty" gorm:"type:decimal(12,4);not null;default:0"`
	MaxUnits   int       `json:"max_units" gorm:"default:0"` // 批量评估得到的最大可制造数
	Approved   bool      `json:"approved" gorm:"default:false"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PlannedGood) TableName() string {
	return "bom_planned_goods"
}

// NonCraftableGood 批量评估得出的不可制造成品及其缺料清单
type NonCraftableGood struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BomNumber    string    `json:"bom_number" gorm:"size:64;not null;uniqueIndex"`
	MissingItems string    `json:"missing_items" gorm:"type:jsonb"` // 缺料列表JSON
	EvaluatedAt  time.Time `json:"evaluated_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (NonCraftableGood) TableName() string {
	return "bom_non_craftable_goods"
}

// AssemblyLog 装配日志，只追加，不更新不删除
type AssemblyLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BomNumber string    `json:"bom_number" gorm:"size:64;not null;index"`
	Quantity  float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Actor     string    `json:"actor" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (AssemblyLog) TableName() string {
	return "bom_assembly_logs"
}
