package repository

import (
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Reserve 累加一条预留记录
//
// 同一(bom_number, item_code)再次预留时在原行上累加allocation，
// on_hand_snapshot保留首次预留时的值，net_qty按快照减累计预留重算并截断为0。
func (r *AllocationRepository) Reserve(tx *gorm.DB, entry *entity.AllocationEntry) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bom_number"}, {Name: "item_code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"allocation": gorm.Expr("bom_allocations.allocation + EXCLUDED.allocation"),
			"net_qty": gorm.Expr(
				"GREATEST(bom_allocations.on_hand_snapshot - (bom_allocations.allocation + EXCLUDED.allocation), 0)"),
			"extended_quantity": gorm.Expr("EXCLUDED.extended_quantity"),
			"updated_at":        gorm.Expr("NOW()"),
		}),
	}).Create(entry).Error
}

func (r *AllocationRepository) ListByBom(bomNumber string) ([]entity.AllocationEntry, error) {
	var entries []entity.AllocationEntry
	err := r.db.Where("bom_number = ?", bomNumber).
		Order("item_code").Find(&entries).Error
	return entries, err
}

func (r *AllocationRepository) ListAll() ([]entity.AllocationEntry, error) {
	var entries []entity.AllocationEntry
	err := r.db.Order("bom_number, item_code").Find(&entries).Error
	return entries, err
}

// ItemAllocation 按物料汇总的预留量，回滚时整体归还库存
type ItemAllocation struct {
	ItemCode string  `json:"item_code"`
	Total    float64 `json:"total"`
}

// SumByItem 全部台账按物料编码汇总
func (r *AllocationRepository) SumByItem(tx *gorm.DB) ([]ItemAllocation, error) {
	var sums []ItemAllocation
	err := tx.Raw(`
		SELECT item_code, SUM(allocation) AS total
		FROM bom_allocations
		GROUP BY item_code
	`).Scan(&sums).Error
	return sums, err
}

// SumByItemForBom 单个BOM的台账按物料编码汇总
func (r *AllocationRepository) SumByItemForBom(tx *gorm.DB, bomNumber string) ([]ItemAllocation, error) {
	var sums []ItemAllocation
	err := tx.Raw(`
		SELECT item_code, SUM(allocation) AS total
		FROM bom_allocations
		WHERE bom_number = ?
		GROUP BY item_code
	`, bomNumber).Scan(&sums).Error
	return sums, err
}

func (r *AllocationRepository) DeleteAll(tx *gorm.DB) error {
	return tx.Exec(`DELETE FROM bom_allocations`).Error
}

func (r *AllocationRepository) DeleteByBom(tx *gorm.DB, bomNumber string) error {
	return tx.Where("bom_number = ?", bomNumber).
		Delete(&entity.AllocationEntry{}).Error
}

// UpsertPlanned 计划数量累加到计划品记录，max_units取本次评估结果
func (r *AllocationRepository) UpsertPlanned(tx *gorm.DB, good *entity.PlannedGood) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bom_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"planned_qty": gorm.Expr("bom_planned_goods.planned_qty + EXCLUDED.planned_qty"),
			"max_units":   gorm.Expr("EXCLUDED.max_units"),
			"is_active":   true,
			"updated_at":  gorm.Expr("NOW()"),
		}),
	}).Create(good).Error
}

// UpsertEvaluated 批量评估只刷新max_units，不动已有计划数量
func (r *AllocationRepository) UpsertEvaluated(good *entity.PlannedGood) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bom_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"max_units":  gorm.Expr("EXCLUDED.max_units"),
			"is_active":  true,
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(good).Error
}

func (r *AllocationRepository) GetPlanned(bomNumber string) (*entity.PlannedGood, error) {
	var good entity.PlannedGood
	err := r.db.Where("bom_number = ?", bomNumber).First(&good).Error
	return &good, err
}

type PlannedListParams struct {
	Keyword  string
	Approved *bool
	Page     int
	Size     int
}

func (r *AllocationRepository) ListPlanned(params PlannedListParams) ([]entity.PlannedGood, int64, error) {
	query := r.db.Model(&entity.PlannedGood{}).Where("is_active")
	if params.Keyword != "" {
		query = query.Where("bom_number ILIKE ?", "%"+params.Keyword+"%")
	}
	if params.Approved != nil {
		query = query.Where("approved = ?", *params.Approved)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var goods []entity.PlannedGood
	err := query.Order("bom_number").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&goods).Error
	return goods, total, err
}

// ApprovePlanned 审批通过计划品
func (r *AllocationRepository) ApprovePlanned(bomNumber string) error {
	result := r.db.Model(&entity.PlannedGood{}).
		Where("bom_number = ? AND is_active", bomNumber).
		Updates(map[string]interface{}{"approved": true})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AllocationRepository) DeletePlannedByBom(tx *gorm.DB, bomNumber string) error {
	return tx.Where("bom_number = ?", bomNumber).
		Delete(&entity.PlannedGood{}).Error
}

func (r *AllocationRepository) DeletePlannedAll(tx *gorm.DB) error {
	return tx.Exec(`DELETE FROM bom_planned_goods`).Error
}

func (r *AllocationRepository) DeleteNonCraftableAll(tx *gorm.DB) error {
	return tx.Exec(`DELETE FROM bom_non_craftable_goods`).Error
}

// UpsertNonCraftable 记录或刷新不可制造品的缺料清单
func (r *AllocationRepository) UpsertNonCraftable(good *entity.NonCraftableGood) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bom_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"missing_items": gorm.Expr("EXCLUDED.missing_items"),
			"evaluated_at":  gorm.Expr("EXCLUDED.evaluated_at"),
			"updated_at":    gorm.Expr("NOW()"),
		}),
	}).Create(good).Error
}

func (r *AllocationRepository) DeleteNonCraftable(bomNumber string) error {
	return r.db.Where("bom_number = ?", bomNumber).
		Delete(&entity.NonCraftableGood{}).Error
}

type NonCraftableListParams struct {
	Keyword string
	Page    int
	Size    int
}

func (r *AllocationRepository) ListNonCraftable(params NonCraftableListParams) ([]entity.NonCraftableGood, int64, error) {
	query := r.db.Model(&entity.NonCraftableGood{})
	if params.Keyword != "" {
		query = query.Where("bom_number ILIKE ?", "%"+params.Keyword+"%")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var goods []entity.NonCraftableGood
	err := query.Order("evaluated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&goods).Error
	return goods, total, err
}

// CreateAssemblyLog 组装记录只追加，不更新不删除
func (r *AllocationRepository) CreateAssemblyLog(tx *gorm.DB, log *entity.AssemblyLog) error {
	return tx.Create(log).Error
}

func (r *AllocationRepository) ListAssemblyLogs(bomNumber string, page, size int) ([]entity.AssemblyLog, int64, error) {
	query := r.db.Model(&entity.AssemblyLog{})
	if bomNumber != "" {
		query = query.Where("bom_number = ?", bomNumber)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var logs []entity.AssemblyLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&logs).Error
	return logs, total, err
}

func (r *AllocationRepository) DB() *gorm.DB {
	return r.db
}
