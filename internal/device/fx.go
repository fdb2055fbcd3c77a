package device

import (
	"github.com/vanillasomethin/ALIVE-Backend/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(service.NewService),
)
