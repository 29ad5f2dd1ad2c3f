package types

import "math/big"

// Bit widths of the circuit's message fields.
const (
	ChainIDBitWidth    = 8
	AccountIDBitWidth  = 32
	SubAccountBitWidth = 8
	TokenBitWidth      = 16
	NonceBitWidth      = 32
	SlotBitWidth       = 16
	OrderNonceBitWidth = 24
	PairBitWidth       = 8
	PriceBitWidth      = 120
	TimestampBitWidth  = 32
	BalanceBitWidth    = 128
	FrBitWidth         = 254
)

// Byte widths used by the canonical encoder.
const (
	PriceBytes         = PriceBitWidth / 8
	BalanceBytes       = BalanceBitWidth / 8
	OrderNonceBytes    = OrderNonceBitWidth / 8
	PubKeyHashBytes    = 20
	AddressBytes       = 32
	BaseChainAddrBytes = 20
	FundingRateBytes   = 2
	PairSymbolBytes    = 15
	// OrdersBytes is the fixed input width of the orders hash.
	OrdersBytes = 178
	// FrBytes is the number of whole bytes a hash keeps so it always fits a field element.
	FrBytes = 31
)

// Protocol ranges.
const (
	MaxChainID      ChainID      = 31
	MaxAccountID    AccountID    = 1<<24 - 1
	MaxSubAccountID SubAccountID = 31
	MaxTokenID      TokenID      = 1<<16 - 1
	MaxSlotID       SlotID       = 1<<16 - 1
	MaxNonce        Nonce        = 1<<32 - 1
	MaxOrderNonce   Nonce        = 1<<24 - 1

	// GlobalAssetAccountID is the operator's aggregate account, never a user account.
	GlobalAssetAccountID AccountID = 1

	// USD and its stable-coin aliases are reserved and cannot be used as spot tokens.
	USDTokenID            TokenID = 1
	USDXTokenIDLowerBound TokenID = USDTokenID + 1
	USDXTokenIDUpperBound TokenID = 16

	UsedPositionNumber      = 4
	MarginTokensNumber      = 4
	WithdrawFeeRatioDenom   = 10000
	MaxMarginRatio          = 100
	MaxContractMarginRate   = 1000
	TokenMaxPrecision       = 18
	MinPrice                = 1
)

// MaxPrice is the exclusive upper bound of every price field.
var MaxPrice, _ = new(big.Int).SetString("1329227995784915872000000000000000000", 10) //nolint:gochecknoglobals

// MaxBalance is the largest unpacked amount (u128).
var MaxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), BalanceBitWidth), big.NewInt(1)) //nolint:gochecknoglobals
