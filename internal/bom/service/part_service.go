package service

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
)

// ErrInvalidPart 物料行缺少必填字段或字段非法
var ErrInvalidPart = errors.New("物料行字段非法")

// PartService 物料目录维护
type PartService struct {
	repos *repository.Repositories
}

func NewPartService(repos *repository.Repositories) *PartService {
	return &PartService{repos: repos}
}

// PartInput 新增或修改物料行的请求体
type PartInput struct {
	BomNumber        string  `json:"bom_number" binding:"required"`
	ItemLevel        int     `json:"item_level" binding:"required,min=1"`
	ItemCode         string  `json:"item_code" binding:"required"`
	Description      string  `json:"description"`
	MakeOrBuy        string  `json:"make_or_buy" binding:"required,oneof=MAKE BUY"`
	OnHandQty        float64 `json:"on_hand_qty" binding:"min=0"`
	ExtendedQuantity float64 `json:"extended_quantity" binding:"required,gt=0"`
}

// Save 按(bom_number, item_code)新增或覆盖一条物料行
func (s *PartService) Save(input *PartInput, createdBy string) (*entity.Part, error) {
	if input.MakeOrBuy != entity.TypeMake && input.MakeOrBuy != entity.TypeBuy {
		return nil, ErrInvalidPart
	}
	if input.ExtendedQuantity <= 0 || input.OnHandQty < 0 || input.ItemLevel < 1 {
		return nil, ErrInvalidPart
	}

	part := &entity.Part{
		BomNumber:        input.BomNumber,
		ItemLevel:        input.ItemLevel,
		ItemCode:         input.ItemCode,
		Description:      input.Description,
		MakeOrBuy:        input.MakeOrBuy,
		OnHandQty:        input.OnHandQty,
		ExtendedQuantity: input.ExtendedQuantity,
		IsActive:         true,
		CreatedBy:        createdBy,
	}
	if err := s.repos.Part.Upsert(part); err != nil {
		return nil, fmt.Errorf("保存物料行失败: %w", err)
	}
	return part, nil
}

func (s *PartService) Get(id string) (*entity.Part, error) {
	part, err := s.repos.Part.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("查询物料行失败: %w", err)
	}
	return part, nil
}

func (s *PartService) List(params repository.PartListParams) ([]entity.Part, int64, error) {
	return s.repos.Part.List(params)
}

// Deactivate 停用物料行，递归展开不再包含它
func (s *PartService) Deactivate(id string) error {
	part, err := s.repos.Part.GetByID(id)
	if err != nil {
		return err
	}
	part.IsActive = false
	return s.repos.Part.Update(part)
}

var exportHeaders = []string{"BOM编码", "层级", "物料编码", "描述", "自制/外购", "库存数量", "单位用量"}

// ExportExcel 导出物料目录，返回生成的工作簿
func (s *PartService) ExportExcel(params repository.PartListParams) (*excelize.File, error) {
	// 导出不分页
	params.Page = 1
	params.Size = 100000
	parts, _, err := s.repos.Part.List(params)
	if err != nil {
		return nil, fmt.Errorf("查询物料目录失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "物料目录"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for i, part := range parts {
		values := []interface{}{
			part.BomNumber, part.ItemLevel, part.ItemCode, part.Description,
			part.MakeOrBuy, part.OnHandQty, part.ExtendedQuantity,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return f, nil
}
