package main

// service.go – the query surface the explorer's HTTP handlers sit on top
// of, kept as a narrow interface (ledgerService) so server_test.go can
// swap in a mock instead of standing up a real Nexus.

import (
	"fmt"
	"math/big"
	"strings"

	core "chainforge/core"
)

type ledgerService interface {
	LatestBlocks(chain string, count int) ([]map[string]interface{}, error)
	BlockByHeight(chain string, height uint64) (*core.Block, error)
	TxByHash(chain string, hashHex string) (*core.Transaction, error)
	Balance(chain, token, addrHex string) (*big.Int, error)
	Info() map[string]interface{}
}

// nexusService answers explorer queries against a live Nexus.
type nexusService struct {
	nexus *core.Nexus
}

func newNexusService(n *core.Nexus) *nexusService { return &nexusService{nexus: n} }

func (s *nexusService) chain(name string) (*core.Chain, error) {
	c, ok := s.nexus.Chain(name)
	if !ok {
		return nil, fmt.Errorf("unknown chain %q", name)
	}
	return c, nil
}

// LatestBlocks returns up to count block summaries, most recent first.
func (s *nexusService) LatestBlocks(chainName string, count int) ([]map[string]interface{}, error) {
	c, err := s.chain(chainName)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, count)
	for h := c.Height(); h >= 0 && len(out) < count; h-- {
		blk, ok := c.BlockAt(uint64(h))
		if !ok {
			break
		}
		out = append(out, map[string]interface{}{
			"height": blk.Height,
			"hash":   blk.Hash().String(),
			"txs":    len(blk.Transactions),
		})
	}
	return out, nil
}

func (s *nexusService) BlockByHeight(chainName string, height uint64) (*core.Block, error) {
	c, err := s.chain(chainName)
	if err != nil {
		return nil, err
	}
	blk, ok := c.BlockAt(height)
	if !ok {
		return nil, fmt.Errorf("no block at height %d", height)
	}
	return blk, nil
}

// TxByHash linearly scans the chain's committed blocks; the explorer is a
// read-only convenience surface, not an indexed store (§1 non-goals).
func (s *nexusService) TxByHash(chainName, hashHex string) (*core.Transaction, error) {
	c, err := s.chain(chainName)
	if err != nil {
		return nil, err
	}
	for h := uint64(0); ; h++ {
		blk, ok := c.BlockAt(h)
		if !ok {
			break
		}
		for _, tx := range blk.Transactions {
			if strings.EqualFold(tx.Hash().String(), hashHex) {
				return tx, nil
			}
		}
	}
	return nil, fmt.Errorf("transaction not found")
}

func (s *nexusService) Balance(chainName, token, addrHex string) (*big.Int, error) {
	c, err := s.chain(chainName)
	if err != nil {
		return nil, err
	}
	addr, err := core.ParseAddress(strings.TrimPrefix(addrHex, "0x"))
	if err != nil {
		return nil, err
	}
	return c.GetTokenBalance(token, addr), nil
}

func (s *nexusService) Info() map[string]interface{} {
	height := int64(-1)
	hash := ""
	if s.nexus.Root != nil {
		height = s.nexus.Root.Height()
		if tip := s.nexus.Root.Tip(); tip != nil {
			hash = tip.Hash().String()
		}
	}
	return map[string]interface{}{
		"rootHeight": height,
		"rootHash":   hash,
		"owner":      s.nexus.Owner.String(),
	}
}
