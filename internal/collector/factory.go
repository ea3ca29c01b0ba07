package collector

import (
	"fmt"

	"github.com/qepting91/campsite-watcher/internal/domain"
)

const (
	ModeRecGov = "recgov"
	ModeMock   = "mock"
)

// NewCollector selects the implementation for mode. An empty mode means recgov.
func NewCollector(mode, baseURL string) (domain.Collector, error) {
	switch mode {
	case "", ModeRecGov:
		return NewRecGovClient(baseURL), nil
	case ModeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown collector mode: %s (use '%s' or '%s')", mode, ModeRecGov, ModeMock)
	}
}
