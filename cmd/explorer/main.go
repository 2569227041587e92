package main

// main.go – the explorer binary: bootstraps a Nexus genesis in-memory
// (chainforge ships no persistence layer, §1) and serves it read-only.

import (
	"math/big"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	core "chainforge/core"
)

func main() {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()
	viper.SetDefault("EXPLORER_BIND", ":8081")
	viper.SetDefault("SOUL_SUPPLY", "1000000000000000000000000")
	viper.SetDefault("CHILD_CHAINS", []string{"account", "privacy", "apps"})

	soulSupply, ok := new(big.Int).SetString(viper.GetString("SOUL_SUPPLY"), 10)
	if !ok {
		log.Fatalf("explorer: invalid SOUL_SUPPLY %q", viper.GetString("SOUL_SUPPLY"))
	}

	owner := core.DeriveSystemAddress("explorer-owner")
	nexus := core.NewNexus(core.SystemClock{})
	if err := nexus.Genesis(owner, viper.GetStringSlice("CHILD_CHAINS"), soulSupply, big.NewInt(0)); err != nil {
		log.Fatalf("explorer: genesis: %v", err)
	}

	addr := viper.GetString("EXPLORER_BIND")
	srv := NewServer(addr, newNexusService(nexus))

	log.WithField("addr", addr).Info("explorer listening")
	if err := srv.Start(); err != nil {
		log.Fatalf("explorer: server: %v", err)
	}
}
