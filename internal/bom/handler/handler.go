package handler

import "github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"

// Handlers HTTP处理器集合
type Handlers struct {
	Auth  *AuthHandler
	Part  *PartHandler
	Craft *CraftHandler
	Plan  *PlanHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:  NewAuthHandler(services.Auth),
		Part:  NewPartHandler(services.Part),
		Craft: NewCraftHandler(services.Craft),
		Plan:  NewPlanHandler(services.Plan),
	}
}
