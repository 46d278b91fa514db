package handlers

import (
	"github.com/jmoiron/sqlx"

	"kitstore/internal/config"
	"kitstore/internal/repos"
	"kitstore/internal/services"
)

type Deps struct {
	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
	AuthHandler    *AuthHandler
	AIHandler      *AIHandler
	Auth           *services.AuthService
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	orderSvc := services.NewOrderService(orderRepo)
	authSvc := &services.AuthService{
		Users:      userRepo,
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	describeSvc := services.NewDescribeService(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout)

	return &Deps{
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc},
		AuthHandler:    &AuthHandler{Auth: authSvc},
		AIHandler:      &AIHandler{Describe: describeSvc},
		Auth:           authSvc,
	}
}
