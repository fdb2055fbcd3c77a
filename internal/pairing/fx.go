package pairing

import (
	"github.com/vanillasomethin/ALIVE-Backend/internal/pairing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pairing.service",
	fx.Provide(service.NewService),
)
