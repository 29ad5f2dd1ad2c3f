package tx

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
)

// ParameterKind is the parameter type byte of an UpdateGlobalVar.
type ParameterKind uint8

const (
	ParamFeeAccount           ParameterKind = 0
	ParamInsuranceFundAccount ParameterKind = 1
	ParamMarginInfo           ParameterKind = 2
	ParamContractInfo         ParameterKind = 3
	ParamFundingInfos         ParameterKind = 4
	// ParamFundingRates is the older rate-only funding update.
	ParamFundingRates ParameterKind = 5
)

var parameterNames = map[ParameterKind]string{ //nolint:gochecknoglobals
	ParamFeeAccount:           "feeAccount",
	ParamInsuranceFundAccount: "insuranceFundAccount",
	ParamMarginInfo:           "marginInfo",
	ParamContractInfo:         "contractInfo",
	ParamFundingInfos:         "fundingInfos",
	ParamFundingRates:         "fundingRates",
}

// Parameter is one global variable update. Implementations are the types in this file.
type Parameter interface {
	Kind() ParameterKind
	validate() error
	encode(e *encoder)
	clone() Parameter
}

type FeeAccount struct {
	AccountID types.AccountID `json:"accountId"`
}

type InsuranceFundAccount struct {
	AccountID types.AccountID `json:"accountId"`
}

type MarginInfo struct {
	MarginID types.MarginID `json:"marginId"`
	TokenID  types.TokenID  `json:"tokenId"`
	Ratio    uint8          `json:"ratio"`
}

type ContractInfo struct {
	PairID                types.PairID `json:"pairId"`
	Symbol                string       `json:"symbol"`
	InitialMarginRate     uint16       `json:"initialMarginRate"`
	MaintenanceMarginRate uint16       `json:"maintenanceMarginRate"`
}

// FundingInfo is the accumulated funding of one pair at a mark price.
type FundingInfo struct {
	PairID      types.PairID  `json:"pairId"`
	Price       types.BigUint `json:"price"`
	FundingRate int16         `json:"fundingRate"`
}

type FundingInfos struct {
	Infos []FundingInfo `json:"infos"`
}

type FundingRate struct {
	PairID      types.PairID `json:"pairId"`
	FundingRate int16        `json:"fundingRate"`
}

type FundingRates struct {
	Rates []FundingRate `json:"rates"`
}

func (FeeAccount) Kind() ParameterKind           { return ParamFeeAccount }
func (InsuranceFundAccount) Kind() ParameterKind { return ParamInsuranceFundAccount }
func (MarginInfo) Kind() ParameterKind           { return ParamMarginInfo }
func (ContractInfo) Kind() ParameterKind         { return ParamContractInfo }
func (FundingInfos) Kind() ParameterKind         { return ParamFundingInfos }
func (FundingRates) Kind() ParameterKind         { return ParamFundingRates }

func (p FeeAccount) validate() error {
	return (&validator{}).account("accountId", p.AccountID).result()
}

func (p InsuranceFundAccount) validate() error {
	return (&validator{}).account("accountId", p.AccountID).result()
}

func (p MarginInfo) validate() error {
	v := &validator{}
	if int(p.MarginID) >= types.MarginTokensNumber {
		v.fail("marginId", "margin id %d out of range", p.MarginID)
	}
	return v.token("tokenId", p.TokenID).marginRatio("ratio", p.Ratio).result()
}

func (p ContractInfo) validate() error {
	v := &validator{}
	v.pair("pairId", p.PairID)
	for i := 0; i < len(p.Symbol); i++ {
		if p.Symbol[i] > maxASCII {
			v.fail("symbol", "pair symbol must be ascii")
			break
		}
	}
	if len(p.Symbol) > types.PairSymbolBytes {
		v.fail("symbol", "pair symbol longer than %d bytes", types.PairSymbolBytes)
	}
	if p.InitialMarginRate >= types.MaxContractMarginRate || p.MaintenanceMarginRate >= types.MaxContractMarginRate {
		v.fail("marginRate", "initial or maintenance margin rate out of range")
	}
	return v.result()
}

const maxASCII = 0x7f

func (p FundingInfos) validate() error {
	v := &validator{}
	if len(p.Infos) != types.UsedPositionNumber {
		v.fail("infos", "expected %d funding infos, got %d", types.UsedPositionNumber, len(p.Infos))
	}
	for i := range p.Infos {
		field := fmt.Sprintf("infos[%d]", i)
		v.pair(field+".pairId", p.Infos[i].PairID).
			externalPrice(field+".price", bigOf(&p.Infos[i].Price)).
			fundingRate(field+".fundingRate", p.Infos[i].FundingRate)
	}
	return v.result()
}

func (p FundingRates) validate() error {
	v := &validator{}
	if len(p.Rates) != types.UsedPositionNumber {
		v.fail("rates", "expected %d funding rates, got %d", types.UsedPositionNumber, len(p.Rates))
	}
	for i, r := range p.Rates {
		field := fmt.Sprintf("rates[%d]", i)
		v.pair(field+".pairId", r.PairID).fundingRate(field+".fundingRate", r.FundingRate)
	}
	return v.result()
}

func (p FeeAccount) encode(e *encoder)           { e.u32(uint32(p.AccountID)) }
func (p InsuranceFundAccount) encode(e *encoder) { e.u32(uint32(p.AccountID)) }

func (p MarginInfo) encode(e *encoder) {
	e.u8(uint8(p.MarginID)).u16(uint16(p.TokenID)).u8(p.Ratio)
}

func (p ContractInfo) encode(e *encoder) {
	symbol := resize([]byte(p.Symbol), types.PairSymbolBytes)
	e.u8(uint8(p.PairID)).raw(symbol).u16(p.InitialMarginRate).u16(p.MaintenanceMarginRate)
}

func (p FundingInfos) encode(e *encoder) {
	for i := range p.Infos {
		info := &p.Infos[i]
		e.u8(uint8(info.PairID)).
			uint("price", bigOf(&info.Price), types.PriceBytes).
			u16(signMagnitude(info.FundingRate))
	}
}

func (p FundingRates) encode(e *encoder) {
	for _, r := range p.Rates {
		e.u8(uint8(r.PairID)).u16(signMagnitude(r.FundingRate))
	}
}

func (p FeeAccount) clone() Parameter           { return p }
func (p InsuranceFundAccount) clone() Parameter { return p }
func (p MarginInfo) clone() Parameter           { return p }
func (p ContractInfo) clone() Parameter         { return p }

func (p FundingInfos) clone() Parameter {
	out := FundingInfos{Infos: make([]FundingInfo, len(p.Infos))}
	for i, info := range p.Infos {
		out.Infos[i] = FundingInfo{PairID: info.PairID, Price: cloneBig(info.Price), FundingRate: info.FundingRate}
	}
	return out
}

func (p FundingRates) clone() Parameter {
	return FundingRates{Rates: append([]FundingRate(nil), p.Rates...)}
}

// signMagnitude writes |rate| with the sign in the top bit. i16 minimum is rejected by validation.
func signMagnitude(rate int16) uint16 {
	if rate < 0 {
		return uint16(-int32(rate)) | 1<<15
	}
	return uint16(rate)
}

// UpdateGlobalVar is an operator transaction relayed from a base chain.
type UpdateGlobalVar struct {
	FromChainID  types.ChainID      `json:"fromChainId"`
	SubAccountID types.SubAccountID `json:"subAccountId"`
	Parameter    Parameter          `json:"parameter"`
	SerialID     uint64             `json:"serialId"`
	Signature    types.ZkSignature  `json:"signature"`
}

type UpdateGlobalVarBuilder struct {
	FromChainID  types.ChainID
	SubAccountID types.SubAccountID
	Parameter    Parameter
	SerialID     uint64
}

func NewUpdateGlobalVar(b UpdateGlobalVarBuilder) (*UpdateGlobalVar, error) {
	t := &UpdateGlobalVar{
		FromChainID:  b.FromChainID,
		SubAccountID: b.SubAccountID,
		SerialID:     b.SerialID,
	}
	if b.Parameter != nil {
		t.Parameter = b.Parameter.clone()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *UpdateGlobalVar) Type() Type { return TypeUpdateGlobalVar }

func (t *UpdateGlobalVar) Validate() error {
	v := &validator{}
	v.chain("fromChainId", t.FromChainID).subAccount("subAccountId", t.SubAccountID)
	if t.Parameter == nil {
		return v.fail("parameter", "parameter is required").result()
	}
	return v.nested("parameter", t.Parameter.validate()).result()
}

func (t *UpdateGlobalVar) Encode() ([]byte, error) {
	if t.Parameter == nil {
		return nil, types.NewValidationError("parameter", "parameter is required")
	}

	e := newEncoder(64) //nolint:mnd
	e.u8(uint8(TypeUpdateGlobalVar)).
		u8(uint8(t.FromChainID)).
		u8(uint8(t.SubAccountID)).
		u8(uint8(t.Parameter.Kind()))
	t.Parameter.encode(e)
	return e.u64(t.SerialID).result()
}

func (t *UpdateGlobalVar) RollupSignature() types.ZkSignature { return t.Signature }

func (t *UpdateGlobalVar) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *UpdateGlobalVar) Clone() Tx {
	c := *t
	if t.Parameter != nil {
		c.Parameter = t.Parameter.clone()
	}
	return &c
}

type updateGlobalVarJSON struct {
	FromChainID  types.ChainID              `json:"fromChainId"`
	SubAccountID types.SubAccountID         `json:"subAccountId"`
	Parameter    map[string]json.RawMessage `json:"parameter"`
	SerialID     uint64                     `json:"serialId"`
	Signature    types.ZkSignature          `json:"signature"`
}

// MarshalJSON writes the parameter as a single-key object named after its kind.
func (t *UpdateGlobalVar) MarshalJSON() ([]byte, error) {
	if t.Parameter == nil {
		return nil, errors.New("update global var without parameter")
	}

	body, err := json.Marshal(t.Parameter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal parameter")
	}

	return json.Marshal(updateGlobalVarJSON{ //nolint:wrapcheck
		FromChainID:  t.FromChainID,
		SubAccountID: t.SubAccountID,
		Parameter:    map[string]json.RawMessage{parameterNames[t.Parameter.Kind()]: body},
		SerialID:     t.SerialID,
		Signature:    t.Signature,
	})
}

func (t *UpdateGlobalVar) UnmarshalJSON(data []byte) error {
	var raw updateGlobalVarJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to decode update global var")
	}
	if len(raw.Parameter) != 1 {
		return errors.New("parameter must have exactly one variant")
	}

	var param Parameter
	for name, body := range raw.Parameter {
		var err error
		if param, err = decodeParameter(name, body); err != nil {
			return err
		}
	}

	*t = UpdateGlobalVar{
		FromChainID:  raw.FromChainID,
		SubAccountID: raw.SubAccountID,
		Parameter:    param,
		SerialID:     raw.SerialID,
		Signature:    raw.Signature,
	}
	return nil
}

func decodeParameter(name string, body json.RawMessage) (Parameter, error) {
	var (
		param Parameter
		err   error
	)
	switch name {
	case parameterNames[ParamFeeAccount]:
		param, err = decodeAs[FeeAccount](body)
	case parameterNames[ParamInsuranceFundAccount]:
		param, err = decodeAs[InsuranceFundAccount](body)
	case parameterNames[ParamMarginInfo]:
		param, err = decodeAs[MarginInfo](body)
	case parameterNames[ParamContractInfo]:
		param, err = decodeAs[ContractInfo](body)
	case parameterNames[ParamFundingInfos]:
		param, err = decodeAs[FundingInfos](body)
	case parameterNames[ParamFundingRates]:
		param, err = decodeAs[FundingRates](body)
	default:
		return nil, errors.Errorf("unknown parameter %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode parameter %s", name)
	}
	return param, nil
}

func decodeAs[P Parameter](body json.RawMessage) (Parameter, error) {
	var p P
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return p, nil
}
