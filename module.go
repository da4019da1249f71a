package observerloop

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SessionParams are the dependencies of ProvideSession.
type SessionParams struct {
	fx.In

	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
	Options    []Option              `optional:"true"`
}

// Module returns the fx module providing a *Session whose publisher is torn
// down when the application stops.
func Module() fx.Option {
	return fx.Module("observerloop",
		fx.Provide(ProvideSession),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSession builds a Session from the injected logger, registerer and
// options.
func ProvideSession(p SessionParams) *Session {
	opts := []Option{WithLogger(p.Logger)}
	if p.Registerer != nil {
		opts = append(opts, WithMetrics(NewMetrics(p.Registerer)))
	}
	opts = append(opts, p.Options...)
	return NewSession(opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Session) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Close()
			return nil
		},
	})
}
