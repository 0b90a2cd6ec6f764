package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 用户
		&User{},

		// 物料目录
		&Part{},

		// 分配台账
		&AllocationEntry{},
		&PlannedGood{},
		&NonCraftableGood{},

		// 装配日志
		&AssemblyLog{},
	)
}
