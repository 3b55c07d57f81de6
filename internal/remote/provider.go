package remote

import (
	"context"

	"github.com/torfstack/zenremote/internal/zenodo"
)

const DefaultProtocol = "https://"

// Provider hands out remote objects that all share one deposition.
type Provider struct {
	zen Depositions
}

// NewProvider connects to Zenodo, creating a deposition if o names none.
func NewProvider(ctx context.Context, o zenodo.Options, opts ...zenodo.Option) (*Provider, *zenodo.Manager, error) {
	m, err := zenodo.New(ctx, o, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewProviderWith(m), m, nil
}

func NewProviderWith(zen Depositions) *Provider {
	return &Provider{zen: zen}
}

func (p *Provider) Remote(host Host) *RemoteObject {
	return &RemoteObject{host: host, zen: p.zen}
}

func (p *Provider) DefaultProtocol() string {
	return DefaultProtocol
}

func (p *Provider) AvailableProtocols() []string {
	return []string{"http://", "https://"}
}
