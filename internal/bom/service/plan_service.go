package service

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/engine"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
)

// ErrInvalidActor 装配确认必须带操作人
var ErrInvalidActor = errors.New("操作人不能为空")

// PlanService 计划/回滚/装配确认，全部写路径都在单个事务内完成
type PlanService struct {
	craft  *CraftService
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewPlanService(craft *CraftService, repos *repository.Repositories, logger *zap.Logger) *PlanService {
	return &PlanService{craft: craft, repos: repos, logger: logger}
}

// PlanResult 一次成功计划的汇总
type PlanResult struct {
	BomNumber   string                   `json:"bom_number"`
	Quantity    int                      `json:"quantity"`
	MaxUnits    int                      `json:"max_units"`
	Allocations []entity.AllocationEntry `json:"allocations"`
}

// Plan 把一次可制造性检查转为库存预留
//
// 先在请求数量下计算可制造性，有缺料则返回ShortageError且不做任何写入。
// 通过后在一个事务内：逐物料扣减目录库存（下限0）、累加台账、累加计划品
// 数量。任一步失败整体回滚。
func (s *PlanService) Plan(bomNumber string, quantity int, actor string) (*PlanResult, error) {
	if quantity <= 0 {
		return nil, engine.ErrInvalidQuantity
	}

	tree, items, err := s.craft.Explode(bomNumber)
	if err != nil {
		return nil, err
	}
	res, err := engine.Evaluate(tree, items, bomNumber, quantity)
	if err != nil {
		return nil, err
	}
	if !res.Craftable() {
		return nil, &engine.ShortageError{BomNumber: bomNumber, Missing: res.Shortages}
	}

	// 预留顺序固定，日志和死锁行为可复现
	itemCodes := make([]string, 0, len(res.UsedItems))
	for code := range res.UsedItems {
		itemCodes = append(itemCodes, code)
	}
	sort.Strings(itemCodes)

	err = s.repos.Part.DB().Transaction(func(tx *gorm.DB) error {
		for _, code := range itemCodes {
			usedQty := res.UsedItems[code]
			info := items[code]

			entry := &entity.AllocationEntry{
				BomNumber:        bomNumber,
				ItemCode:         code,
				ItemLevel:        info.ItemLevel,
				OnHandSnapshot:   info.OnHandQty,
				ExtendedQuantity: info.ExtendedQuantity,
				Allocation:       usedQty,
				NetQty:           math.Max(info.OnHandQty-usedQty, 0),
			}
			if err := s.repos.Allocation.Reserve(tx, entry); err != nil {
				return fmt.Errorf("写入分配台账失败: %w", err)
			}
			if err := s.repos.Part.DecrementOnHand(tx, code, usedQty); err != nil {
				return fmt.Errorf("扣减库存失败: %w", err)
			}
		}

		good := &entity.PlannedGood{
			BomNumber:  bomNumber,
			PlannedQty: float64(quantity),
			MaxUnits:   res.MaxUnits,
			IsActive:   true,
		}
		if err := s.repos.Allocation.UpsertPlanned(tx, good); err != nil {
			return fmt.Errorf("保存计划品失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("BOM计划完成",
		zap.String("bom_number", bomNumber),
		zap.Int("quantity", quantity),
		zap.String("actor", actor))

	allocations, err := s.repos.Allocation.ListByBom(bomNumber)
	if err != nil {
		return nil, fmt.Errorf("查询分配台账失败: %w", err)
	}
	return &PlanResult{
		BomNumber:   bomNumber,
		Quantity:    quantity,
		MaxUnits:    res.MaxUnits,
		Allocations: allocations,
	}, nil
}

// RollbackAll 撤销全部未完成的预留
//
// 一个事务内：按物料汇总台账预留量加回目录库存，然后清空台账、计划品
// 和缺料记录。台账为空时等价于无操作。
func (s *PlanService) RollbackAll() (int, error) {
	restored := 0
	err := s.repos.Part.DB().Transaction(func(tx *gorm.DB) error {
		sums, err := s.repos.Allocation.SumByItem(tx)
		if err != nil {
			return fmt.Errorf("汇总分配台账失败: %w", err)
		}
		for _, sum := range sums {
			if err := s.repos.Part.RestoreOnHand(tx, sum.ItemCode, sum.Total); err != nil {
				return fmt.Errorf("恢复库存失败: %w", err)
			}
		}
		restored = len(sums)

		if err := s.repos.Allocation.DeleteAll(tx); err != nil {
			return fmt.Errorf("清空分配台账失败: %w", err)
		}
		if err := s.repos.Allocation.DeletePlannedAll(tx); err != nil {
			return fmt.Errorf("清空计划品失败: %w", err)
		}
		if err := s.repos.Allocation.DeleteNonCraftableAll(tx); err != nil {
			return fmt.Errorf("清空缺料记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("全部预留已回滚", zap.Int("restored_items", restored))
	return restored, nil
}

// Finalize 装配确认：消耗预留而非归还
//
// 库存在计划时已经扣减并保持扣减，这里只删除该BOM的台账和计划品记录，
// 并追加一条装配日志。不重新校验可制造性；台账已空时除追加日志外等价
// 于无操作。
func (s *PlanService) Finalize(bomNumber string, quantity float64, actor string) (*entity.AssemblyLog, error) {
	if bomNumber == "" {
		return nil, ErrBomNotFound
	}
	if actor == "" {
		return nil, ErrInvalidActor
	}
	if quantity <= 0 {
		return nil, engine.ErrInvalidQuantity
	}

	log := &entity.AssemblyLog{
		BomNumber: bomNumber,
		Quantity:  quantity,
		Actor:     actor,
	}
	err := s.repos.Part.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Allocation.DeleteByBom(tx, bomNumber); err != nil {
			return fmt.Errorf("删除分配台账失败: %w", err)
		}
		if err := s.repos.Allocation.DeletePlannedByBom(tx, bomNumber); err != nil {
			return fmt.Errorf("删除计划品失败: %w", err)
		}
		if err := s.repos.Allocation.CreateAssemblyLog(tx, log); err != nil {
			return fmt.Errorf("写入装配日志失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("装配确认完成",
		zap.String("bom_number", bomNumber),
		zap.Float64("quantity", quantity),
		zap.String("actor", actor))
	return log, nil
}

// Approve 计划品审批通过
func (s *PlanService) Approve(bomNumber string) error {
	return s.repos.Allocation.ApprovePlanned(bomNumber)
}

// ListPlanned 分页查询计划品
func (s *PlanService) ListPlanned(params repository.PlannedListParams) ([]entity.PlannedGood, int64, error) {
	return s.repos.Allocation.ListPlanned(params)
}

// ListAllocations 查询分配台账，bomNumber为空时返回全部
func (s *PlanService) ListAllocations(bomNumber string) ([]entity.AllocationEntry, error) {
	if bomNumber == "" {
		return s.repos.Allocation.ListAll()
	}
	return s.repos.Allocation.ListByBom(bomNumber)
}

// ListAssemblyLogs 分页查询装配日志
func (s *PlanService) ListAssemblyLogs(bomNumber string, page, size int) ([]entity.AssemblyLog, int64, error) {
	return s.repos.Allocation.ListAssemblyLogs(bomNumber, page, size)
}
