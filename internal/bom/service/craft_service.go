package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/engine"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/config"
)

// ErrBomNotFound 目录中查不到该成品编码的BOM行
var ErrBomNotFound = errors.New("BOM不存在或没有组成明细")

// batchCacheKey 最近一次批量评估结果的Redis缓存键
const batchCacheKey = "bom:craftable:latest"

// CraftService 可制造性计算服务
type CraftService struct {
	repos  *repository.Repositories
	rdb    *redis.Client
	cfg    *config.Config
	logger *zap.Logger
}

func NewCraftService(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *CraftService {
	return &CraftService{repos: repos, rdb: rdb, cfg: cfg, logger: logger}
}

// Explode 取BOM行并构建树，计算前的公共步骤
func (s *CraftService) Explode(bomNumber string) (engine.Tree, engine.ItemTable, error) {
	rows, err := s.repos.Part.FetchBomRows(bomNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("查询BOM明细失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrBomNotFound
	}
	tree, items := engine.BuildTree(rows, bomNumber)
	return tree, items, nil
}

// Evaluate 单个成品的可制造性计算
func (s *CraftService) Evaluate(bomNumber string, quantity int) (*engine.Result, error) {
	if quantity <= 0 {
		quantity = s.cfg.Craft.DefaultQuantity
	}
	tree, items, err := s.Explode(bomNumber)
	if err != nil {
		return nil, err
	}
	return engine.Evaluate(tree, items, bomNumber, quantity)
}

// CraftableGood 批量评估中可制造的成品
type CraftableGood struct {
	BomNumber string             `json:"bom_number"`
	MaxUnits  int                `json:"max_units"`
	UsedItems map[string]float64 `json:"used_items"`
}

// NonCraftableResult 批量评估中不可制造的成品及缺料
type NonCraftableResult struct {
	BomNumber string            `json:"bom_number"`
	Shortages []engine.Shortage `json:"missing_items"`
}

// BatchResult 一次批量评估的完整输出
type BatchResult struct {
	Craftable    []CraftableGood      `json:"craftable"`
	NonCraftable []NonCraftableResult `json:"non_craftable"`
	Skipped      []string             `json:"skipped"`
	EvaluatedAt  time.Time            `json:"evaluated_at"`
}

type evalOutcome struct {
	res *engine.Result
	err error
}

// evaluateWithTimeout 在独立超时内计算单个编码。超时后结果被丢弃，
// 后台goroutine写入带缓冲的通道后自行退出，不会泄漏
func (s *CraftService) evaluateWithTimeout(ctx context.Context, bomNumber string, quantity int) (*engine.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Craft.EvalTimeout)
	defer cancel()

	ch := make(chan evalOutcome, 1)
	go func() {
		res, err := s.Evaluate(bomNumber, quantity)
		ch <- evalOutcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		return out.res, out.err
	}
}

// EvaluateBatch 批量评估
//
// codes为空时评估目录中全部成品编码。单个编码超时或出错只记日志并跳过，
// 整个批次继续。结果落库（可制造品刷新max_units，不可制造品落缺料清单）
// 并写入Redis缓存。
func (s *CraftService) EvaluateBatch(ctx context.Context, codes []string, quantity int) (*BatchResult, error) {
	if quantity <= 0 {
		quantity = s.cfg.Craft.DefaultQuantity
	}
	if len(codes) == 0 {
		all, err := s.repos.Part.DistinctBomNumbers()
		if err != nil {
			return nil, fmt.Errorf("查询成品编码列表失败: %w", err)
		}
		codes = all
	}

	batch := &BatchResult{
		Craftable:    make([]CraftableGood, 0),
		NonCraftable: make([]NonCraftableResult, 0),
		Skipped:      make([]string, 0),
		EvaluatedAt:  time.Now(),
	}

	for _, code := range codes {
		res, err := s.evaluateWithTimeout(ctx, code, quantity)
		if err != nil {
			s.logger.Warn("跳过评估失败的BOM",
				zap.String("bom_number", code),
				zap.Error(err))
			batch.Skipped = append(batch.Skipped, code)
			continue
		}
		if res.Craftable() {
			batch.Craftable = append(batch.Craftable, CraftableGood{
				BomNumber: code,
				MaxUnits:  res.MaxUnits,
				UsedItems: res.UsedItems,
			})
		} else {
			batch.NonCraftable = append(batch.NonCraftable, NonCraftableResult{
				BomNumber: code,
				Shortages: res.Shortages,
			})
		}
	}

	if err := s.persistBatch(batch); err != nil {
		return nil, err
	}
	s.cacheBatch(ctx, batch)

	return batch, nil
}

func (s *CraftService) persistBatch(batch *BatchResult) error {
	for _, good := range batch.Craftable {
		err := s.repos.Allocation.UpsertEvaluated(&entity.PlannedGood{
			BomNumber: good.BomNumber,
			MaxUnits:  good.MaxUnits,
			IsActive:  true,
		})
		if err != nil {
			return fmt.Errorf("保存可制造品失败: %w", err)
		}
		// 上一轮评估留下的缺料记录已过期
		if err := s.repos.Allocation.DeleteNonCraftable(good.BomNumber); err != nil {
			return fmt.Errorf("清理缺料记录失败: %w", err)
		}
	}
	for _, good := range batch.NonCraftable {
		missing, err := json.Marshal(good.Shortages)
		if err != nil {
			return fmt.Errorf("序列化缺料清单失败: %w", err)
		}
		err = s.repos.Allocation.UpsertNonCraftable(&entity.NonCraftableGood{
			BomNumber:    good.BomNumber,
			MissingItems: string(missing),
			EvaluatedAt:  batch.EvaluatedAt,
		})
		if err != nil {
			return fmt.Errorf("保存不可制造品失败: %w", err)
		}
	}
	return nil
}

// cacheBatch 缓存失败不影响评估结果，只记日志
func (s *CraftService) cacheBatch(ctx context.Context, batch *BatchResult) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		s.logger.Warn("序列化批量结果失败", zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, batchCacheKey, payload, s.cfg.Craft.CacheTTL).Err(); err != nil {
		s.logger.Warn("写入批量结果缓存失败", zap.Error(err))
	}
}

// CachedBatch 读取最近一次批量评估缓存，未命中返回nil
func (s *CraftService) CachedBatch(ctx context.Context) (*BatchResult, error) {
	if s.rdb == nil {
		return nil, nil
	}
	payload, err := s.rdb.Get(ctx, batchCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取批量结果缓存失败: %w", err)
	}
	var batch BatchResult
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, fmt.Errorf("解析批量结果缓存失败: %w", err)
	}
	return &batch, nil
}

// ListNonCraftable 分页查询不可制造品记录
func (s *CraftService) ListNonCraftable(params repository.NonCraftableListParams) ([]entity.NonCraftableGood, int64, error) {
	return s.repos.Allocation.ListNonCraftable(params)
}
