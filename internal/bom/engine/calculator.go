package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
)

// ErrInvalidQuantity 请求数量必须为正整数
var ErrInvalidQuantity = errors.New("数量必须为正整数")

// 非数值缺料原因
const (
	ReasonUnknown = "unknown" // 属性表中不存在的物料
	ReasonCycle   = "cycle"   // BOM中存在环
)

// Shortage 一条缺料记录。Reason为空时Missing为缺少的数量
type Shortage struct {
	ItemCode string  `json:"item_code"`
	Missing  float64 `json:"missing,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// Result 一次可制造性计算的输出，每次计算独立生成，不持久化
type Result struct {
	MaxUnits  int                `json:"max_units"`
	Shortages []Shortage         `json:"shortages"`
	UsedItems map[string]float64 `json:"used_items"`
}

// Craftable 可制造：至少能产出1件且无缺料
func (r *Result) Craftable() bool {
	return r.MaxUnits > 0 && len(r.Shortages) == 0
}

// ShortageError 计划失败时携带完整缺料清单返回给调用方
type ShortageError struct {
	BomNumber string
	Missing   []Shortage
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("BOM %s 缺料 %d 项，无法计划", e.BomNumber, len(e.Missing))
}

// evaluator 单次Evaluate调用内的累加器，绝不跨调用共享
type evaluator struct {
	tree   Tree
	items  ItemTable
	used   map[string]float64
	shorts []Shortage
	onPath map[string]bool // 当前递归路径上的物料，环检测
}

// Evaluate 计算rootCode在请求数量下的最大可制造件数与缺料清单
func Evaluate(tree Tree, items ItemTable, rootCode string, quantity int) (*Result, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	e := &evaluator{
		tree:   tree,
		items:  items,
		used:   make(map[string]float64),
		onPath: make(map[string]bool),
	}

	maxUnits := e.evaluate(rootCode, float64(quantity))

	// 根自身不进入预留清单
	delete(e.used, rootCode)

	return &Result{
		MaxUnits:  int(maxUnits),
		Shortages: e.shorts,
		UsedItems: e.used,
	}, nil
}

// evaluate 返回该物料能支撑的父项最大件数（除以自身extended_quantity后的值）。
// 0表示该分支不可满足
func (e *evaluator) evaluate(itemCode string, quantityNeeded float64) float64 {
	item, ok := e.items[itemCode]
	if !ok {
		e.shorts = append(e.shorts, Shortage{ItemCode: itemCode, Reason: ReasonUnknown})
		return 0
	}

	if e.onPath[itemCode] {
		// 路径上重复出现说明BOM仍有环，按不可产出处理而不是中断整次计算
		e.shorts = append(e.shorts, Shortage{ItemCode: itemCode, Reason: ReasonCycle})
		return 0
	}
	e.onPath[itemCode] = true
	defer delete(e.onPath, itemCode)

	extQty := item.ExtendedQuantity
	if extQty <= 0 {
		extQty = 1
	}

	// 库存足够时直接短路返回，不再向下展开
	if item.OnHandQty >= quantityNeeded {
		e.used[itemCode] += quantityNeeded
		return math.Floor(item.OnHandQty / extQty)
	}

	// 外购件必须完全由库存满足，缺了就是缺料，不展开子级
	if item.MakeOrBuy == entity.TypeBuy {
		e.shorts = append(e.shorts, Shortage{
			ItemCode: itemCode,
			Missing:  quantityNeeded - item.OnHandQty,
		})
		return 0
	}

	// 自制件库存不足：消耗全部现有库存，差额由子级生产补足
	remaining := quantityNeeded - item.OnHandQty

	children := e.tree[itemCode]
	if len(children) == 0 {
		// 无库存也无子级
		e.shorts = append(e.shorts, Shortage{ItemCode: itemCode, Missing: remaining})
		return 0
	}

	childUnits := make([]float64, 0, len(children))
	failed := false
	for _, child := range children {
		childExt := 1.0
		if info, exists := e.items[child]; exists && info.ExtendedQuantity > 0 {
			childExt = info.ExtendedQuantity
		}

		// 子级返回值已折算为"可支撑的本物料件数"
		got := e.evaluate(child, remaining*childExt)
		if got == 0 {
			// 继续遍历其余子级，保证缺料清单覆盖整棵树
			failed = true
			continue
		}
		childUnits = append(childUnits, got)
	}
	if failed {
		return 0
	}

	unitsOfSelf := childUnits[0]
	for _, u := range childUnits[1:] {
		if u < unitsOfSelf {
			unitsOfSelf = u
		}
	}
	if unitsOfSelf > 0 {
		e.used[itemCode] += quantityNeeded
	}
	return math.Floor(unitsOfSelf / extQty)
}
