package main

// main.go – the chainforge CLI (§6): genesis bootstrap, single-block
// execution and read-only inspection, driven by cobra subcommand groups.

import (
	"fmt"
	"math/big"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	core "chainforge/core"
	"chainforge/pkg/config"
)

func main() {
	_ = godotenv.Load(".env")
	viper.AutomaticEnv()

	root := &cobra.Command{Use: "chainforge"}
	root.AddCommand(genesisCmd())
	root.AddCommand(runBlockCmd())
	root.AddCommand(inspectCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildNexus loads config and runs genesis once, returning the live
// Nexus every subcommand operates on. Since chainforge keeps no disk
// persistence (§1), every CLI invocation bootstraps a fresh nexus.
func buildNexus() (*core.Nexus, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Warn("chainforge: no config file found, using defaults")
		cfg = &config.Config{}
	}

	soulSupply, ok := new(big.Int).SetString(cfg.Nexus.SoulSupply, 10)
	if !ok {
		soulSupply = big.NewInt(1_000_000_000)
	}
	kcalSupply, ok := new(big.Int).SetString(cfg.Nexus.KcalSupply, 10)
	if !ok {
		kcalSupply = big.NewInt(0)
	}
	childChains := cfg.Nexus.ChildChains
	if len(childChains) == 0 {
		childChains = []string{"account", "privacy", "apps"}
	}

	owner := core.DeriveSystemAddress("cli-owner")
	nexus := core.NewNexus(core.SystemClock{})
	if err := nexus.Genesis(owner, childChains, soulSupply, kcalSupply); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return nexus, nil
}

func genesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "bootstrap a nexus and print its chain tree and token supplies",
		RunE: func(cmd *cobra.Command, args []string) error {
			nexus, err := buildNexus()
			if err != nil {
				return err
			}
			fmt.Printf("owner: %s\n", nexus.Owner.String())
			fmt.Printf("root chain address: %s\n", nexus.Root.Address.String())
			for _, name := range []string{core.StakingTokenSymbol, core.FuelTokenSymbol} {
				tok, _ := nexus.GetToken(name)
				fmt.Printf("token %s: supply=%s max=%s\n", tok.Symbol, tok.CurrentSupply, tok.MaxSupply)
			}
			return nil
		},
	}
}

func runBlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-block",
		Short: "append an empty block to the root chain and report its hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			nexus, err := buildNexus()
			if err != nil {
				return err
			}
			block := &core.Block{Height: uint64(nexus.Root.Height() + 1), PreviousHash: zeroOrTip(nexus.Root), Timestamp: 1}
			if err := nexus.Root.AddBlock(block, nexus.Owner); err != nil {
				return fmt.Errorf("run-block: %w", err)
			}
			fmt.Printf("committed block %d, hash %s\n", block.Height, block.Hash().String())
			return nil
		},
	}
}

func zeroOrTip(c *core.Chain) core.Hash {
	if tip := c.Tip(); tip != nil {
		return tip.Hash()
	}
	return core.Hash{}
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [chain]",
		Short: "print a chain's height, tip hash and owner balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			nexus, err := buildNexus()
			if err != nil {
				return err
			}
			name := "root"
			if len(args) > 0 {
				name = args[0]
			}
			c, ok := nexus.Chain(name)
			if !ok {
				return fmt.Errorf("inspect: unknown chain %q", name)
			}
			fmt.Printf("chain %s: height=%d\n", c.Name, c.Height())
			if tip := c.Tip(); tip != nil {
				fmt.Printf("  tip: %s\n", tip.Hash().String())
			}
			fmt.Printf("  owner SOUL balance: %s\n", c.GetTokenBalance(core.StakingTokenSymbol, nexus.Owner))
			return nil
		},
	}
	return cmd
}
