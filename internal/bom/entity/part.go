package entity

import (
	"time"
)

// MakeOrBuy 物料属性：自制件可以有子级，外购件永远是叶子
const (
	TypeMake = "MAKE" // 自制件
	TypeBuy  = "BUY"  // 外购件
)

// Part BOM物料行：一条(bom_number, item_code)表示item_code是bom_number的一个组成部分
type Part struct {
	ID               string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BomNumber        string    `json:"bom_number" gorm:"size:64;not null;uniqueIndex:uk_bom_item,priority:1;index"`
	ItemLevel        int       `json:"item_level" gorm:"not null;default:1"` // 距根节点深度，>=1
	ItemCode         string    `json:"item_code" gorm:"size:64;not null;uniqueIndex:uk_bom_item,priority:2;index"`
	Description      string    `json:"description" gorm:"type:text"`
	MakeOrBuy        string    `json:"make_or_buy" gorm:"size:10;not null;default:BUY"`
	OnHandQty        float64   `json:"on_hand_qty" gorm:"type:decimal(12,4);not null;default:0"`
	ExtendedQuantity float64   `json:"extended_quantity" gorm:"type:decimal(12,4);not null;default:1"` // 每生产1个父项消耗的数量
	IsActive         bool      `json:"is_active" gorm:"default:true"`
	CreatedBy        string    `json:"created_by" gorm:"size:64"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "bom_parts"
}

// PartRow 递归查询返回的扁平BOM行，engine包以此为输入
type PartRow struct {
	OwningCode       string  `json:"owning_code"`
	ItemLevel        int     `json:"item_level"`
	ItemCode         string  `json:"item_code"`
	MakeOrBuy        string  `json:"make_or_buy"`
	OnHandQty        float64 `json:"on_hand_qty"`
	ExtendedQuantity float64 `json:"extended_quantity"`
}
