package tx

import (
	"fmt"

	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/rollup/zkhash"
)

const (
	contractPriceBytes = 1 + types.PriceBytes
	marginPriceBytes   = 2 + types.PriceBytes
)

// ContractPrice is the oracle mark price of one perpetual pair.
type ContractPrice struct {
	PairID      types.PairID  `json:"pairId"`
	MarketPrice types.BigUint `json:"marketPrice"`
}

// SpotPriceInfo is the oracle price of one margin token.
type SpotPriceInfo struct {
	TokenID types.TokenID `json:"tokenId"`
	Price   types.BigUint `json:"price"`
}

// OraclePrices is the price snapshot a matching or liquidation transaction commits to.
type OraclePrices struct {
	ContractPrices []ContractPrice `json:"contractPrices"`
	MarginPrices   []SpotPriceInfo `json:"marginPrices"`
}

// DefaultOraclePrices holds zero prices for every pair and margin slot.
func DefaultOraclePrices() OraclePrices {
	p := OraclePrices{
		ContractPrices: make([]ContractPrice, types.UsedPositionNumber),
		MarginPrices:   make([]SpotPriceInfo, types.MarginTokensNumber),
	}
	for i := range p.ContractPrices {
		p.ContractPrices[i].PairID = types.PairID(i)
	}
	return p
}

func (p OraclePrices) validate() error {
	v := &validator{}
	if len(p.ContractPrices) != types.UsedPositionNumber {
		return v.fail("contractPrices", "expected %d prices, got %d", types.UsedPositionNumber, len(p.ContractPrices)).result()
	}
	for i, c := range p.ContractPrices {
		field := fmt.Sprintf("contractPrices[%d]", i)
		v.pair(field+".pairId", c.PairID).externalPrice(field+".marketPrice", bigOf(&c.MarketPrice))
		if int(c.PairID) != i {
			v.fail(field+".pairId", "contract prices must be ordered by pair id")
		}
	}

	if len(p.MarginPrices) != types.MarginTokensNumber {
		v.fail("marginPrices", "expected %d prices, got %d", types.MarginTokensNumber, len(p.MarginPrices))
	}
	for i, m := range p.MarginPrices {
		field := fmt.Sprintf("marginPrices[%d]", i)
		v.token(field+".tokenId", m.TokenID).externalPrice(field+".price", bigOf(&m.Price))
	}
	return v.result()
}

func (p OraclePrices) encode() ([]byte, error) {
	contracts := newEncoder(contractPriceBytes * len(p.ContractPrices))
	for i := range p.ContractPrices {
		c := &p.ContractPrices[i]
		contracts.u8(uint8(c.PairID)).uint("marketPrice", bigOf(&c.MarketPrice), types.PriceBytes)
	}
	contractBytes, err := contracts.result()
	if err != nil {
		return nil, err
	}

	margins := newEncoder(marginPriceBytes * len(p.MarginPrices))
	for i := range p.MarginPrices {
		m := &p.MarginPrices[i]
		margins.u16(uint16(m.TokenID)).uint("price", bigOf(&m.Price), types.PriceBytes)
	}
	marginBytes, err := margins.result()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2*types.FrBytes)
	out = append(out, zkhash.Sum31(contractBytes)...)
	out = append(out, zkhash.Sum31(marginBytes)...)
	return out, nil
}

// Hash is the 31 byte commitment embedded in transactions.
func (p OraclePrices) Hash() ([]byte, error) {
	b, err := p.encode()
	if err != nil {
		return nil, err
	}
	return zkhash.Sum31(b), nil
}

func (p OraclePrices) clone() OraclePrices {
	out := OraclePrices{
		ContractPrices: make([]ContractPrice, len(p.ContractPrices)),
		MarginPrices:   make([]SpotPriceInfo, len(p.MarginPrices)),
	}
	for i, c := range p.ContractPrices {
		out.ContractPrices[i] = ContractPrice{PairID: c.PairID, MarketPrice: cloneBig(c.MarketPrice)}
	}
	for i, m := range p.MarginPrices {
		out.MarginPrices[i] = SpotPriceInfo{TokenID: m.TokenID, Price: cloneBig(m.Price)}
	}
	return out
}
