package repository

import "gorm.io/gorm"

// Repositories 数据访问层集合
type Repositories struct {
	Part       *PartRepository
	Allocation *AllocationRepository
	User       *UserRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:       NewPartRepository(db),
		Allocation: NewAllocationRepository(db),
		User:       NewUserRepository(db),
	}
}
