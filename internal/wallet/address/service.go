package address

import "fmt"

type service struct{}

// NewService creates a new address Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

// BIP44Path gets BIP44 path (fixed format for EVM chains)
// Format: m/44'/60'/0'/0/{index}
func (s *service) BIP44Path(addressIndex int) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", addressIndex)
}
