package tx_test

import (
	"bytes"
	"math"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

const testTimestamp types.TimeStamp = 1693472232

var (
	testAddress = types.MustParseAddress("0xAFAFf3aD1a0425D792432D9eCD1c3e26Ef2C42E9")
	// testAddressBytes is testAddress in its 32 byte on-wire form.
	testAddressBytes = concat(
		make([]byte, 12),
		[]byte{175, 175, 243, 173, 26, 4, 37, 215, 146, 67, 45, 158, 205, 28, 62, 38, 239, 44, 66, 233},
	)
	testTimestampBytes = []byte{100, 240, 85, 232}
)

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func mustEncode(t *testing.T, transaction tx.Tx) []byte {
	t.Helper()
	b, err := transaction.Encode()
	require.NoError(t, err)
	return b
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var validation *types.ValidationError
	require.True(t, errors.As(err, &validation), "expected validation error, got %v", err)
	assert.Equal(t, field, validation.Field)
}

func TestChangePubKeyEncoding(t *testing.T) {
	pkHash := types.PubKeyHash{216, 213, 251, 106, 108, 174, 240, 106, 163, 220, 42, 189, 205, 194, 64, 152, 126, 83, 48, 254}
	cpk := &tx.ChangePubKey{
		ChainID:      1,
		AccountID:    1,
		SubAccountID: 1,
		NewPkHash:    pkHash,
		FeeToken:     18,
		Fee:          types.BigUintFromUint64(100),
		Nonce:        1,
		Timestamp:    testTimestamp,
	}

	expected := concat([]byte{6, 1, 0, 0, 0, 1, 1}, pkHash[:], []byte{0, 18, 12, 128, 0, 0, 0, 1}, testTimestampBytes)
	assert.Equal(t, expected, mustEncode(t, cpk))

	// account 1 is the global asset account and cannot be built through the constructor
	_, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
		ChainID: 1, AccountID: 1, SubAccountID: 1, NewPkHash: pkHash, FeeToken: 18, Fee: big.NewInt(100), Nonce: 1,
	})
	requireValidationField(t, err, "accountId")
}

func TestTransferEncoding(t *testing.T) {
	transfer, err := tx.NewTransfer(tx.TransferBuilder{
		AccountID:        10,
		FromSubAccountID: 1,
		ToAddress:        testAddress,
		ToSubAccountID:   1,
		Token:            18,
		Amount:           big.NewInt(10000),
		Fee:              big.NewInt(3),
		Nonce:            1,
		Timestamp:        testTimestamp,
	})
	require.NoError(t, err)

	expected := concat(
		[]byte{4, 0, 0, 0, 10, 1}, testAddressBytes,
		[]byte{1, 0, 18, 0, 0, 4, 226, 0, 0, 96, 0, 0, 0, 1}, testTimestampBytes,
	)
	assert.Equal(t, expected, mustEncode(t, transfer))
}

func TestWithdrawEncoding(t *testing.T) {
	withdraw, err := tx.NewWithdraw(tx.WithdrawBuilder{
		AccountID:     10,
		SubAccountID:  1,
		ToChainID:     1,
		ToAddress:     testAddress,
		L2SourceToken: 18,
		L1TargetToken: 18,
		Amount:        big.NewInt(10000),
		Fee:           big.NewInt(3),
		Nonce:         1,
		Timestamp:     testTimestamp,
	})
	require.NoError(t, err)

	expected := concat(
		[]byte{3, 1, 0, 0, 0, 10, 1}, testAddressBytes,
		[]byte{0, 18, 0, 18}, make([]byte, 14), []byte{39, 16},
		[]byte{0, 96, 0, 0, 0, 1, 0, 0, 0}, testTimestampBytes,
	)
	encoded := mustEncode(t, withdraw)
	assert.Len(t, encoded, 72)
	assert.Equal(t, expected, encoded)
}

func TestForcedExitEncoding(t *testing.T) {
	forcedExit, err := tx.NewForcedExit(tx.ForcedExitBuilder{
		ToChainID:             1,
		InitiatorAccountID:    10,
		InitiatorSubAccountID: 1,
		InitiatorNonce:        1,
		Target:                testAddress,
		TargetSubAccountID:    1,
		L2SourceToken:         18,
		L1TargetToken:         18,
		ExitAmount:            big.NewInt(10000),
		Timestamp:             testTimestamp,
	})
	require.NoError(t, err)

	expected := concat(
		[]byte{7, 1, 0, 0, 0, 10, 1}, testAddressBytes,
		[]byte{1, 0, 18, 0, 18, 0, 0, 0, 1}, make([]byte, 14), []byte{39, 16, 0}, testTimestampBytes,
	)
	assert.Equal(t, expected, mustEncode(t, forcedExit))
}

func TestUpdateGlobalVarEncoding(t *testing.T) {
	fundingInfos := tx.FundingInfos{Infos: []tx.FundingInfo{
		{PairID: 0, Price: types.MustParseBigUint("1000000000000000000"), FundingRate: math.MaxInt16},
		{PairID: 1, Price: types.MustParseBigUint("1000000000000000"), FundingRate: 0},
		{PairID: 2, Price: types.MustParseBigUint("1000000000000"), FundingRate: -1},
		{PairID: 3, Price: types.MustParseBigUint("1000000000"), FundingRate: 1},
	}}

	tests := []struct {
		name      string
		parameter tx.Parameter
		expected  []byte
	}{
		{
			name:      "funding infos",
			parameter: fundingInfos,
			expected: []byte{
				12, 1, 1, 4, 0, 0, 0, 0, 0, 0, 0, 0, 13, 224, 182, 179, 167, 100, 0, 0, 127, 255,
				1, 0, 0, 0, 0, 0, 0, 0, 0, 3, 141, 126, 164, 198, 128, 0, 0, 0, 2, 0, 0, 0, 0, 0,
				0, 0, 0, 0, 0, 232, 212, 165, 16, 0, 128, 1, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
				59, 154, 202, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0,
			},
		},
		{
			name:      "fee account",
			parameter: tx.FeeAccount{AccountID: 10},
			expected:  []byte{12, 1, 1, 0, 0, 0, 0, 10, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:      "insurance fund account",
			parameter: tx.InsuranceFundAccount{AccountID: 9},
			expected:  []byte{12, 1, 1, 1, 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:      "margin info",
			parameter: tx.MarginInfo{MarginID: 1, TokenID: 18, Ratio: 0},
			expected:  []byte{12, 1, 1, 2, 1, 0, 18, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:      "contract info",
			parameter: tx.ContractInfo{PairID: 2, Symbol: "BTCUSDC", InitialMarginRate: 6, MaintenanceMarginRate: 8},
			expected: concat(
				[]byte{12, 1, 1, 3, 2}, []byte("BTCUSDC"), make([]byte, 8),
				[]byte{0, 6, 0, 8}, make([]byte, 8),
			),
		},
		{
			name: "funding rates",
			parameter: tx.FundingRates{Rates: []tx.FundingRate{
				{PairID: 0, FundingRate: -2}, {PairID: 1, FundingRate: 2}, {PairID: 2}, {PairID: 3, FundingRate: 256},
			}},
			expected: concat(
				[]byte{12, 1, 1, 5},
				[]byte{0, 128, 2, 1, 0, 2, 2, 0, 0, 3, 1, 0},
				make([]byte, 8),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := tx.NewUpdateGlobalVar(tx.UpdateGlobalVarBuilder{
				FromChainID:  1,
				SubAccountID: 1,
				Parameter:    tt.parameter,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mustEncode(t, update))
		})
	}
}

func TestUpdateGlobalVarRejectsMinimumFundingRate(t *testing.T) {
	_, err := tx.NewUpdateGlobalVar(tx.UpdateGlobalVarBuilder{
		FromChainID: 1,
		Parameter: tx.FundingRates{Rates: []tx.FundingRate{
			{PairID: 0, FundingRate: math.MinInt16}, {PairID: 1}, {PairID: 2}, {PairID: 3},
		}},
	})
	requireValidationField(t, err, "parameter.rates[0].fundingRate")
}

func signedOrder(t *testing.T, accountID types.AccountID, isSell bool) *tx.Order {
	t.Helper()
	order, err := tx.NewOrder(tx.OrderBuilder{
		AccountID:    accountID,
		SubAccountID: 1,
		SlotID:       3,
		Nonce:        1,
		BaseTokenID:  18,
		QuoteTokenID: 145,
		Amount:       big.NewInt(1000000),
		Price:        big.NewInt(1500000000000),
		IsSell:       isSell,
		MakerFeeRate: 5,
		TakerFeeRate: 10,
	})
	require.NoError(t, err)

	var sig types.ZkSignature
	sig.PubKey[0] = byte(accountID)
	sig.Signature[0] = 1
	order.Signature = sig
	return order
}

func TestMatchingAndContractEncodingWidths(t *testing.T) {
	maker := signedOrder(t, 5, true)
	taker := signedOrder(t, 6, false)

	orderBytes, err := maker.Encode()
	require.NoError(t, err)
	assert.Len(t, orderBytes, 39)
	assert.Equal(t, byte(0xff), orderBytes[0])

	matching, err := tx.NewOrderMatching(tx.OrderMatchingBuilder{
		AccountID:    10,
		SubAccountID: 1,
		Maker:        maker,
		Taker:        taker,
		Fee:          big.NewInt(3),
		FeeToken:     18,
	})
	require.NoError(t, err)
	assert.Len(t, mustEncode(t, matching), 73)

	contract := func(accountID types.AccountID) *tx.Contract {
		c, err := tx.NewContract(tx.ContractBuilder{
			AccountID: accountID, SubAccountID: 1, SlotID: 1, Nonce: 1, PairID: 0,
			Size: big.NewInt(100), Price: big.NewInt(3000000000), Direction: tx.Long,
		})
		require.NoError(t, err)
		return c
	}
	contractBytes, err := contract(5).Encode()
	require.NoError(t, err)
	assert.Len(t, contractBytes, 36)
	assert.Equal(t, byte(0xfe), contractBytes[0])

	contractMatching, err := tx.NewContractMatching(tx.ContractMatchingBuilder{
		AccountID: 10, SubAccountID: 1, Taker: contract(6), Maker: []*tx.Contract{contract(5), contract(7)},
		Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)
	assert.Len(t, mustEncode(t, contractMatching), 41)

	_, err = tx.NewContractMatching(tx.ContractMatchingBuilder{
		AccountID: 10, Taker: contract(6),
		Maker: []*tx.Contract{contract(5), contract(7), contract(8), contract(9)},
		Fee:   big.NewInt(3), FeeToken: 18,
	})
	requireValidationField(t, err, "maker")

	adl, err := tx.NewAutoDeleveraging(tx.AutoDeleveragingBuilder{
		AccountID: 10, SubAccountID: 1, SubAccountNonce: 2, AdlAccountID: 11, PairID: 1,
		AdlSize: big.NewInt(100), AdlPrice: big.NewInt(3000000000), Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)
	assert.Len(t, mustEncode(t, adl), 70)

	liquidation, err := tx.NewLiquidation(tx.LiquidationBuilder{
		AccountID: 10, SubAccountID: 1, SubAccountNonce: 2, LiquidationAccountID: 11, Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)
	assert.Len(t, mustEncode(t, liquidation), 49)
}

func TestFundingSingleAndBatch(t *testing.T) {
	single, err := tx.NewFunding(tx.FundingBuilder{
		AccountID: 10, SubAccountID: 1, SubAccountNonce: 2,
		FundingAccountIDs: []types.AccountID{258}, Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)

	encoded := mustEncode(t, single)
	assert.Equal(t, []byte{0x0d, 0, 0, 0, 10, 1, 0, 0, 0, 2, 0, 0, 1, 2, 0, 18, 0, 96}, encoded)
	assert.False(t, single.IsBatch())

	batch, err := tx.NewFunding(tx.FundingBuilder{
		AccountID: 10, SubAccountID: 1, SubAccountNonce: 2,
		FundingAccountIDs: []types.AccountID{258, 259, 260}, Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)
	assert.True(t, batch.IsBatch())
	assert.Len(t, mustEncode(t, batch), 45)

	_, err = tx.NewFunding(tx.FundingBuilder{AccountID: 10, Fee: big.NewInt(3), FeeToken: 18})
	requireValidationField(t, err, "fundingAccountIds")
}

func TestEncodingIsRepeatableAndCloneIsIndependent(t *testing.T) {
	transfer, err := tx.NewTransfer(tx.TransferBuilder{
		AccountID: 10, FromSubAccountID: 1, ToAddress: testAddress, ToSubAccountID: 1, Token: 18,
		Amount: big.NewInt(10000), Fee: big.NewInt(3), Nonce: 1, Timestamp: testTimestamp,
	})
	require.NoError(t, err)

	first := mustEncode(t, transfer)
	assert.Equal(t, first, mustEncode(t, transfer))

	clone, ok := transfer.Clone().(*tx.Transfer)
	require.True(t, ok)
	clone.Amount.SetInt64(20000)
	clone.Nonce = 2

	assert.Equal(t, first, mustEncode(t, transfer))
	assert.NotEqual(t, first, mustEncode(t, clone))

	h1, err := tx.Hash(transfer)
	require.NoError(t, err)
	assert.Equal(t, tx.HashBytes(first), h1)
}

func TestValidationRules(t *testing.T) {
	base := tx.TransferBuilder{
		AccountID: 10, FromSubAccountID: 1, ToAddress: testAddress, ToSubAccountID: 1, Token: 18,
		Amount: big.NewInt(10000), Fee: big.NewInt(3), Nonce: 1, Timestamp: testTimestamp,
	}

	tests := []struct {
		name   string
		mutate func(b *tx.TransferBuilder)
		field  string
	}{
		{"account out of range", func(b *tx.TransferBuilder) { b.AccountID = types.MaxAccountID + 1 }, "accountId"},
		{"sub-account out of range", func(b *tx.TransferBuilder) { b.FromSubAccountID = 32 }, "fromSubAccountId"},
		{"reserved token", func(b *tx.TransferBuilder) { b.Token = 5 }, "token"},
		{"zero address", func(b *tx.TransferBuilder) { b.ToAddress = types.Address{} }, "to"},
		{"global address", func(b *tx.TransferBuilder) {
			b.ToAddress = types.MustParseAddress("0xffffffffffffffffffffffffffffffffffffffff")
		}, "to"},
		{"unpackable amount", func(b *tx.TransferBuilder) { b.Amount = big.NewInt(34359738368) }, "amount"},
		{"zero amount", func(b *tx.TransferBuilder) { b.Amount = big.NewInt(0) }, "amount"},
		{"unpackable fee", func(b *tx.TransferBuilder) { b.Fee = big.NewInt(2049) }, "fee"},
		{"nonce exhausted", func(b *tx.TransferBuilder) { b.Nonce = types.MaxNonce }, "nonce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.mutate(&b)
			_, err := tx.NewTransfer(b)
			requireValidationField(t, err, tt.field)
		})
	}
}
