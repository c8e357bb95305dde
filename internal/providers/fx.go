package providers

import (
	"github.com/smallbiznis/subora/internal/providers/email"
	"github.com/smallbiznis/subora/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
