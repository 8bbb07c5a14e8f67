package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

//go:embed bridges.yaml
var defaultBridgesYAML []byte

type bridgeFile struct {
	Bridges []domain.Bridge `yaml:"bridges"`
}

// LoadBridges reads the bridge registry at path, or the embedded registry when
// path is empty.
func LoadBridges(path string) ([]domain.Bridge, error) {
	data := defaultBridgesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read bridges %s: %w", path, err)
		}
		data = b
	}
	return ParseBridges(data)
}

// ParseBridges decodes a YAML bridge registry and checks every entry.
func ParseBridges(data []byte) ([]domain.Bridge, error) {
	var f bridgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: decode bridges: %w", err)
	}

	var errs []string
	for i, b := range f.Bridges {
		if strings.TrimSpace(b.HomeChain) == "" {
			errs = append(errs, fmt.Sprintf("bridges[%d]: home_chain must not be empty", i))
		}
		if !common.IsHexAddress(b.HomeAddress()) {
			errs = append(errs, fmt.Sprintf("bridges[%d]: home_proxy %q is not an address", i, b.HomeProxy))
		}
		if !b.Native() {
			if !common.IsHexAddress(b.ForeignProxy) {
				errs = append(errs, fmt.Sprintf("bridges[%d]: foreign_proxy %q is not an address", i, b.ForeignProxy))
			}
			if strings.TrimSpace(b.ForeignChain) == "" {
				errs = append(errs, fmt.Sprintf("bridges[%d]: foreign_chain is required with foreign_proxy", i))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: invalid bridges:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return f.Bridges, nil
}
