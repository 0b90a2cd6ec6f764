package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/config"
)

// Services 业务层集合
type Services struct {
	Auth  *AuthService
	Part  *PartService
	Craft *CraftService
	Plan  *PlanService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	craft := NewCraftService(repos, rdb, cfg, logger)
	return &Services{
		Auth:  NewAuthService(repos, rdb, cfg),
		Part:  NewPartService(repos),
		Craft: craft,
		Plan:  NewPlanService(craft, repos, logger),
	}
}
