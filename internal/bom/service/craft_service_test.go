package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/testutil"
)

func setupCraftTest(t *testing.T) (*gorm.DB, *CraftService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := NewServices(repos, nil, testConfig(), zap.NewNop())
	return db, services.Craft
}

func TestEvaluateSingleBom(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedSpecTree(t, db, 10)

	res, err := svc.Evaluate("FG100", 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.MaxUnits != 1 {
		t.Errorf("max units = %d, want 1", res.MaxUnits)
	}
	if res.UsedItems["RAW1"] != 6 || res.UsedItems["SUB1"] != 2 {
		t.Errorf("used items = %v, want RAW1:6 SUB1:2", res.UsedItems)
	}
}

func TestEvaluateSiblingSubAssemblies(t *testing.T) {
	db, svc := setupCraftTest(t)
	// Two make siblings, each with its own stocked sub-document. The fetch
	// must emit each sub-document's rows directly after its owning row so
	// neither sibling is mistaken for a childless leaf.
	testutil.SeedPart(t, db, "FG400", 1, "SUB-A", entity.TypeMake, 0, 1)
	testutil.SeedPart(t, db, "FG400", 1, "SUB-B", entity.TypeMake, 0, 1)
	testutil.SeedPart(t, db, "SUB-A", 2, "RAW1", entity.TypeBuy, 5, 1)
	testutil.SeedPart(t, db, "SUB-B", 2, "RAW2", entity.TypeBuy, 5, 1)

	res, err := svc.Evaluate("FG400", 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.Shortages) != 0 {
		t.Fatalf("shortages = %v, want none (both siblings fully stocked)", res.Shortages)
	}
	if res.MaxUnits != 5 {
		t.Errorf("max units = %d, want 5", res.MaxUnits)
	}
	for _, code := range []string{"SUB-A", "SUB-B"} {
		if res.UsedItems[code] != 1 {
			t.Errorf("used %s = %v, want 1", code, res.UsedItems[code])
		}
	}
	for _, code := range []string{"RAW1", "RAW2"} {
		if res.UsedItems[code] != 1 {
			t.Errorf("used %s = %v, want 1", code, res.UsedItems[code])
		}
	}
}

func TestEvaluateDefaultQuantity(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedSpecTree(t, db, 10)

	// Quantity 0 falls back to the configured default of 1.
	res, err := svc.Evaluate("FG100", 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.MaxUnits != 1 {
		t.Errorf("max units = %d, want 1", res.MaxUnits)
	}
}

func TestEvaluateBatchPartitions(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedSpecTree(t, db, 10)
	testutil.SeedPart(t, db, "FG300", 1, "RAW-Z", entity.TypeBuy, 0, 1)

	batch, err := svc.EvaluateBatch(context.Background(), []string{"FG100", "FG300"}, 1)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}

	if len(batch.Craftable) != 1 || batch.Craftable[0].BomNumber != "FG100" {
		t.Fatalf("craftable = %+v, want only FG100", batch.Craftable)
	}
	if batch.Craftable[0].MaxUnits != 1 {
		t.Errorf("FG100 max units = %d, want 1", batch.Craftable[0].MaxUnits)
	}
	if len(batch.NonCraftable) != 1 || batch.NonCraftable[0].BomNumber != "FG300" {
		t.Fatalf("non-craftable = %+v, want only FG300", batch.NonCraftable)
	}
	if len(batch.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", batch.Skipped)
	}

	// Results are persisted.
	var good entity.PlannedGood
	if err := db.Where("bom_number = ?", "FG100").First(&good).Error; err != nil {
		t.Fatalf("craftable result not persisted: %v", err)
	}
	if good.MaxUnits != 1 {
		t.Errorf("persisted max units = %d, want 1", good.MaxUnits)
	}
	var bad entity.NonCraftableGood
	if err := db.Where("bom_number = ?", "FG300").First(&bad).Error; err != nil {
		t.Fatalf("non-craftable result not persisted: %v", err)
	}
	if !strings.Contains(bad.MissingItems, "RAW-Z") {
		t.Errorf("missing items = %s, want RAW-Z shortfall recorded", bad.MissingItems)
	}
}

func TestEvaluateBatchSkipsUnknownCode(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedSpecTree(t, db, 10)

	batch, err := svc.EvaluateBatch(context.Background(), []string{"FG100", "GHOST"}, 1)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(batch.Skipped) != 1 || batch.Skipped[0] != "GHOST" {
		t.Errorf("skipped = %v, want [GHOST]", batch.Skipped)
	}
	if len(batch.Craftable) != 1 {
		t.Errorf("craftable = %+v, batch must continue past a failed code", batch.Craftable)
	}
}

func TestEvaluateBatchClearsStaleShortages(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedPart(t, db, "FG300", 1, "RAW-Z", entity.TypeBuy, 0, 1)

	if _, err := svc.EvaluateBatch(context.Background(), []string{"FG300"}, 1); err != nil {
		t.Fatalf("first EvaluateBatch: %v", err)
	}
	var count int64
	db.Model(&entity.NonCraftableGood{}).Count(&count)
	if count != 1 {
		t.Fatalf("non-craftable rows = %d, want 1", count)
	}

	// Stock arrives; the stale shortage record must be cleared.
	if err := db.Model(&entity.Part{}).
		Where("item_code = ?", "RAW-Z").
		Update("on_hand_qty", 5).Error; err != nil {
		t.Fatalf("restock: %v", err)
	}
	batch, err := svc.EvaluateBatch(context.Background(), []string{"FG300"}, 1)
	if err != nil {
		t.Fatalf("second EvaluateBatch: %v", err)
	}
	if len(batch.Craftable) != 1 {
		t.Fatalf("craftable = %+v, want FG300 after restock", batch.Craftable)
	}
	db.Model(&entity.NonCraftableGood{}).Count(&count)
	if count != 0 {
		t.Errorf("non-craftable rows = %d, want 0 after restock", count)
	}
}

func TestEvaluateBatchTimeoutSkips(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := testConfig()
	// Deadline expires before any catalog query can answer: every member
	// times out, its late result is discarded, and the batch still runs to
	// completion instead of aborting.
	cfg.Craft.EvalTimeout = time.Nanosecond
	services := NewServices(repos, nil, cfg, zap.NewNop())
	svc := services.Craft

	testutil.SeedSpecTree(t, db, 10)
	testutil.SeedPart(t, db, "FG300", 1, "RAW-Z", entity.TypeBuy, 0, 1)

	batch, err := svc.EvaluateBatch(context.Background(), []string{"FG100", "FG300"}, 1)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(batch.Skipped) != 2 {
		t.Fatalf("skipped = %v, want both codes timed out", batch.Skipped)
	}
	if len(batch.Craftable) != 0 || len(batch.NonCraftable) != 0 {
		t.Errorf("timed-out evaluations must not be partitioned: %+v / %+v",
			batch.Craftable, batch.NonCraftable)
	}
	var count int64
	db.Model(&entity.NonCraftableGood{}).Count(&count)
	if count != 0 {
		t.Errorf("non-craftable rows = %d, want 0 (nothing persisted for skips)", count)
	}
}

func TestEvaluateBatchAllCodes(t *testing.T) {
	db, svc := setupCraftTest(t)
	testutil.SeedSpecTree(t, db, 10)

	// Empty code list evaluates every distinct owning code in the catalog,
	// sub-assembly documents included.
	batch, err := svc.EvaluateBatch(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	evaluated := len(batch.Craftable) + len(batch.NonCraftable) + len(batch.Skipped)
	if evaluated != 2 {
		t.Errorf("evaluated %d codes, want 2 (FG100 and SUB1)", evaluated)
	}
}
