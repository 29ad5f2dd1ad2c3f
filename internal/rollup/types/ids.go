package types

// Identifier types, each encoded at its circuit width.
type (
	ChainID      uint8
	AccountID    uint32
	SubAccountID uint8
	TokenID      uint32
	SlotID       uint32
	PairID       uint16
	Nonce        uint32
	TimeStamp    uint32
	MarginID     uint8
)
