package proofofplay

import (
	"github.com/vanillasomethin/ALIVE-Backend/internal/proofofplay/service"
	"go.uber.org/fx"
)

var Module = fx.Module("proofofplay.service",
	fx.Provide(service.NewService),
)
