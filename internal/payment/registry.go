package payment

import (
	"fmt"
	"log/slog"

	"github.com/karenkamal24/softigitalshop/configs"
)

// Registry maps gateway names to instances. It is populated once at process
// start and read-only afterwards, so no locking is needed.
type Registry struct {
	gateways map[string]Gateway
	def      string
	log      *slog.Logger
}

func NewRegistry(defaultName string, log *slog.Logger) *Registry {
	return &Registry{
		gateways: map[string]Gateway{},
		def:      defaultName,
		log:      log,
	}
}

func (r *Registry) Register(gw Gateway) {
	r.gateways[gw.Name()] = gw
}

func (r *Registry) Resolve(name string) (Gateway, error) {
	gw, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return gw, nil
}

// Default resolves the configured gateway. If it is not registered (typically
// missing credentials) it falls back to the mock gateway and logs a warning
// rather than silently sending traffic to a misconfigured endpoint.
func (r *Registry) Default() (Gateway, error) {
	gw, err := r.Resolve(r.def)
	if err == nil {
		return gw, nil
	}
	r.log.Warn("configured payment gateway unavailable, falling back to mock",
		"gateway", r.def)
	return r.Resolve(GatewayMock)
}

// BuildRegistry wires the registry from configuration. The mock gateway is
// always present; Paymob is registered only when an API key is configured.
func BuildRegistry(cfg configs.Config, log *slog.Logger) *Registry {
	r := NewRegistry(cfg.Payment.Default, log)
	r.Register(NewMockGateway())

	pm := cfg.Payment.Paymob
	if pm.APIKey != "" {
		r.Register(NewPaymobGateway(PaymobConfig{
			APIKey:        pm.APIKey,
			IntegrationID: pm.IntegrationID,
			IframeID:      pm.IframeID,
			MerchantID:    pm.MerchantID,
			BaseURL:       pm.BaseURL,
		}, log))
	}
	return r
}
