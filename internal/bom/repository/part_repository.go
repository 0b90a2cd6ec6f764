package repository

import (
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FetchBomRows 递归取出成品编码可达的全部BOM行
//
// 子行通过 child.bom_number = parent.item_code 关联。path数组记录已访问的
// 归属编码，重复出现的编码不再展开，自引用和互引用都走不进死循环。
// sort_path沿递归累积每行的created_at，按它排序得到深度优先顺序：
// 子文档的行紧跟在归属行之后、下一个兄弟行之前，树构建依赖这个顺序。
// 返回空切片表示该编码没有BOM定义。
func (r *PartRepository) FetchBomRows(rootCode string) ([]entity.PartRow, error) {
	var rows []entity.PartRow
	err := r.db.Raw(`
		WITH RECURSIVE bom_tree AS (
			SELECT
				bom_number,
				item_level,
				item_code,
				make_or_buy,
				on_hand_qty,
				extended_quantity,
				ARRAY[bom_number] AS path,
				ARRAY[EXTRACT(EPOCH FROM created_at)] AS sort_path
			FROM bom_parts
			WHERE bom_number = ? AND is_active

			UNION ALL

			SELECT
				b.bom_number,
				b.item_level,
				b.item_code,
				b.make_or_buy,
				b.on_hand_qty,
				b.extended_quantity,
				bt.path || b.bom_number,
				bt.sort_path || EXTRACT(EPOCH FROM b.created_at)
			FROM bom_parts b
			INNER JOIN bom_tree bt ON b.bom_number = bt.item_code
			WHERE NOT b.bom_number = ANY(bt.path) AND b.is_active
		)
		SELECT
			bom_number AS owning_code,
			item_level,
			item_code,
			make_or_buy,
			on_hand_qty,
			extended_quantity
		FROM bom_tree
		ORDER BY sort_path
	`, rootCode).Scan(&rows).Error
	return rows, err
}

// DistinctBomNumbers 目录中所有不同的BOM编码，批量评估的输入
func (r *PartRepository) DistinctBomNumbers() ([]string, error) {
	var codes []string
	err := r.db.Model(&entity.Part{}).
		Where("is_active").
		Distinct("bom_number").
		Order("bom_number").
		Pluck("bom_number", &codes).Error
	return codes, err
}

func (r *PartRepository) GetByID(id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.Where("id = ?", id).First(&part).Error
	return &part, err
}

func (r *PartRepository) Create(part *entity.Part) error {
	return r.db.Create(part).Error
}

func (r *PartRepository) Update(part *entity.Part) error {
	return r.db.Save(part).Error
}

// Upsert 按(bom_number, item_code)更新或创建物料行
func (r *PartRepository) Upsert(part *entity.Part) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bom_number"}, {Name: "item_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"item_level", "description", "make_or_buy",
			"on_hand_qty", "extended_quantity", "is_active", "updated_at",
		}),
	}).Create(part).Error
}

// DecrementOnHand 扣减某物料编码全部目录行的库存，下限截断为0
func (r *PartRepository) DecrementOnHand(tx *gorm.DB, itemCode string, qty float64) error {
	return tx.Exec(`
		UPDATE bom_parts
		SET on_hand_qty = GREATEST(on_hand_qty - ?, 0), updated_at = NOW()
		WHERE item_code = ?
	`, qty, itemCode).Error
}

// RestoreOnHand 把预留数量加回目录库存
func (r *PartRepository) RestoreOnHand(tx *gorm.DB, itemCode string, qty float64) error {
	return tx.Exec(`
		UPDATE bom_parts
		SET on_hand_qty = on_hand_qty + ?, updated_at = NOW()
		WHERE item_code = ?
	`, qty, itemCode).Error
}

// OnHandByItem 某物料编码当前目录库存（同一编码多行时取最大值）
func (r *PartRepository) OnHandByItem(itemCode string) (float64, error) {
	var result struct{ OnHand float64 }
	err := r.db.Raw(`
		SELECT COALESCE(MAX(on_hand_qty), 0) AS on_hand
		FROM bom_parts
		WHERE item_code = ?
	`, itemCode).Scan(&result).Error
	return result.OnHand, err
}

type PartListParams struct {
	Keyword   string
	BomNumber string
	Page      int
	Size      int
}

func (r *PartRepository) List(params PartListParams) ([]entity.Part, int64, error) {
	query := r.db.Model(&entity.Part{})
	if params.BomNumber != "" {
		query = query.Where("bom_number = ?", params.BomNumber)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("bom_number ILIKE ? OR item_code ILIKE ? OR description ILIKE ? OR make_or_buy ILIKE ?", kw, kw, kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var parts []entity.Part
	err := query.Order("bom_number, item_level, created_at").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&parts).Error
	return parts, total, err
}

// DB 返回底层db用于事务
func (r *PartRepository) DB() *gorm.DB {
	return r.db
}
