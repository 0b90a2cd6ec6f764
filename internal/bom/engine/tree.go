package engine

import (
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
)

// Tree BOM邻接表：item_code -> 有序子项item_code列表，根为成品编码
type Tree map[string][]string

// ItemInfo 单个物料的展开属性
type ItemInfo struct {
	ItemLevel        int
	MakeOrBuy        string
	OnHandQty        float64
	ExtendedQuantity float64
}

// ItemTable 物料属性表。同一item_code出现在多个位置时只保留最后一行（见BuildTree）
type ItemTable map[string]ItemInfo

type stackEntry struct {
	code  string
	level int
}

// BuildTree 把扁平BOM行集构建成以rootCode为根的树
//
// 行集是缩进式BOM清单：父项先于子项出现，item_level表示缩进深度。
// 维护(item_code, level)栈：弹出层级>=当前行的条目，栈顶即为当前行的父项。
// item_level=1的行永远直接挂在根下。构建完成后树和属性表不再修改。
func BuildTree(rows []entity.PartRow, rootCode string) (Tree, ItemTable) {
	tree := make(Tree)
	items := make(ItemTable, len(rows))

	var stack []stackEntry
	for _, row := range rows {
		// 属性表：重复item_code后出现的覆盖先出现的
		items[row.ItemCode] = ItemInfo{
			ItemLevel:        row.ItemLevel,
			MakeOrBuy:        row.MakeOrBuy,
			OnHandQty:        row.OnHandQty,
			ExtendedQuantity: row.ExtendedQuantity,
		}

		// 弹出非祖先条目
		for len(stack) > 0 && stack[len(stack)-1].level >= row.ItemLevel {
			stack = stack[:len(stack)-1]
		}

		if row.ItemLevel == 1 {
			// 一级物料定义上就是成品的直接组成
			tree[rootCode] = append(tree[rootCode], row.ItemCode)
		} else if len(stack) > 0 {
			parent := stack[len(stack)-1].code
			tree[parent] = append(tree[parent], row.ItemCode)
		}

		stack = append(stack, stackEntry{code: row.ItemCode, level: row.ItemLevel})
	}

	// 根自身没有属性行时合成一条，保证递归计算有基准
	if _, ok := items[rootCode]; !ok {
		items[rootCode] = ItemInfo{
			ItemLevel:        0,
			MakeOrBuy:        entity.TypeMake,
			OnHandQty:        0,
			ExtendedQuantity: 1,
		}
	}

	return tree, items
}
