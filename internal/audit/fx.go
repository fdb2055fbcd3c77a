package audit

import (
	"github.com/vanillasomethin/ALIVE-Backend/internal/audit/repository"
	"github.com/vanillasomethin/ALIVE-Backend/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
