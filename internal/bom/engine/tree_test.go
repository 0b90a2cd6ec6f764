package engine

import (
	"reflect"
	"testing"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
)

func row(owning string, level int, code, mob string, onHand, extQty float64) entity.PartRow {
	return entity.PartRow{
		OwningCode:       owning,
		ItemLevel:        level,
		ItemCode:         code,
		MakeOrBuy:        mob,
		OnHandQty:        onHand,
		ExtendedQuantity: extQty,
	}
}

func TestBuildTreeLevelStack(t *testing.T) {
	// FG100
	//  ├─ SUB1 (level 1)
	//  │   └─ RAW1 (level 2)
	//  └─ SUB2 (level 1)
	rows := []entity.PartRow{
		row("FG100", 1, "SUB1", entity.TypeMake, 0, 2),
		row("SUB1", 2, "RAW1", entity.TypeBuy, 4, 3),
		row("FG100", 1, "SUB2", entity.TypeBuy, 8, 1),
	}

	tree, items := BuildTree(rows, "FG100")

	if got := tree["FG100"]; !reflect.DeepEqual(got, []string{"SUB1", "SUB2"}) {
		t.Fatalf("root children = %v, want [SUB1 SUB2]", got)
	}
	if got := tree["SUB1"]; !reflect.DeepEqual(got, []string{"RAW1"}) {
		t.Fatalf("SUB1 children = %v, want [RAW1]", got)
	}
	if _, ok := tree["SUB2"]; ok {
		t.Fatalf("SUB2 should be a leaf")
	}

	if items["RAW1"].ExtendedQuantity != 3 {
		t.Errorf("RAW1 extended quantity = %v, want 3", items["RAW1"].ExtendedQuantity)
	}
	if items["RAW1"].MakeOrBuy != entity.TypeBuy {
		t.Errorf("RAW1 make_or_buy = %q, want BUY", items["RAW1"].MakeOrBuy)
	}
}

func TestBuildTreeSynthesizesRoot(t *testing.T) {
	rows := []entity.PartRow{
		row("FG100", 1, "SUB1", entity.TypeMake, 0, 2),
	}

	_, items := BuildTree(rows, "FG100")

	root, ok := items["FG100"]
	if !ok {
		t.Fatalf("root attribute row should be synthesized")
	}
	if root.OnHandQty != 0 || root.ExtendedQuantity != 1 || root.MakeOrBuy != entity.TypeMake {
		t.Errorf("synthesized root = %+v, want {0 stock, unit ext qty, MAKE}", root)
	}
}

func TestBuildTreeLevelOneAlwaysUnderRoot(t *testing.T) {
	// A level-1 row appearing after a deep subtree must still attach to the
	// root, not to whatever is left on the stack.
	rows := []entity.PartRow{
		row("FG100", 1, "SUB1", entity.TypeMake, 0, 1),
		row("SUB1", 2, "SUB11", entity.TypeMake, 0, 1),
		row("SUB11", 3, "RAW1", entity.TypeBuy, 1, 1),
		row("FG100", 1, "SUB2", entity.TypeBuy, 1, 1),
	}

	tree, _ := BuildTree(rows, "FG100")

	if got := tree["FG100"]; !reflect.DeepEqual(got, []string{"SUB1", "SUB2"}) {
		t.Fatalf("root children = %v, want [SUB1 SUB2]", got)
	}
	if got := tree["SUB11"]; !reflect.DeepEqual(got, []string{"RAW1"}) {
		t.Fatalf("SUB11 children = %v, want [RAW1]", got)
	}
}

func TestBuildTreeSiblingSubtrees(t *testing.T) {
	// Two level-1 siblings each owning a sub-document. In depth-first row
	// order every sub-row must land under its own sibling, not the last
	// level-1 row seen.
	rows := []entity.PartRow{
		row("FG100", 1, "SUB-A", entity.TypeMake, 0, 1),
		row("SUB-A", 2, "RAW1", entity.TypeBuy, 5, 1),
		row("FG100", 1, "SUB-B", entity.TypeMake, 0, 1),
		row("SUB-B", 2, "RAW2", entity.TypeBuy, 5, 1),
	}

	tree, _ := BuildTree(rows, "FG100")

	if got := tree["FG100"]; !reflect.DeepEqual(got, []string{"SUB-A", "SUB-B"}) {
		t.Fatalf("root children = %v, want [SUB-A SUB-B]", got)
	}
	if got := tree["SUB-A"]; !reflect.DeepEqual(got, []string{"RAW1"}) {
		t.Errorf("SUB-A children = %v, want [RAW1]", got)
	}
	if got := tree["SUB-B"]; !reflect.DeepEqual(got, []string{"RAW2"}) {
		t.Errorf("SUB-B children = %v, want [RAW2]", got)
	}
}

func TestBuildTreeDuplicateItemCode(t *testing.T) {
	// The same item code at two tree positions collapses to one attribute
	// entry, last row wins. Documented behavior; revisit with domain owners
	// before changing.
	rows := []entity.PartRow{
		row("FG100", 1, "SUB1", entity.TypeMake, 0, 2),
		row("SUB1", 2, "RAW1", entity.TypeBuy, 4, 3),
		row("FG100", 1, "SUB2", entity.TypeMake, 0, 1),
		row("SUB2", 2, "RAW1", entity.TypeBuy, 9, 5),
	}

	tree, items := BuildTree(rows, "FG100")

	if items["RAW1"].OnHandQty != 9 || items["RAW1"].ExtendedQuantity != 5 {
		t.Errorf("RAW1 attributes = %+v, want last-seen row (9, 5)", items["RAW1"])
	}
	// Both positions keep their edge.
	if len(tree["SUB1"]) != 1 || len(tree["SUB2"]) != 1 {
		t.Errorf("both parents should keep a RAW1 edge: %v / %v", tree["SUB1"], tree["SUB2"])
	}
}
