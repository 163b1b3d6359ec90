package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gonano/nanogo/config"
	"github.com/gonano/nanogo/internal/blockprocessor"
	"github.com/gonano/nanogo/internal/bootstrap"
	"github.com/gonano/nanogo/internal/ledger"
	"github.com/gonano/nanogo/internal/p2p"
	"github.com/gonano/nanogo/libs/log"
	tmos "github.com/gonano/nanogo/libs/os"
)

// NewStartCmd returns the command that opens the ledger, wires the block
// processor and bootstrap service together, and runs until signaled -
// the same shape as the classic NewRunNodeCmd.
func NewStartCmd(conf *config.Config, logger log.Logger) *cobra.Command {
	var genesisPath string

	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the nanogo bootstrap node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), conf, logger, genesisPath)
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to a genesis.toml file to seed an empty ledger")
	return cmd
}

func runNode(ctx context.Context, conf *config.Config, logger log.Logger, genesisPath string) error {
	db, err := config.DefaultDBProvider(&config.DBContext{ID: "ledger", Config: conf})
	if err != nil {
		return fmt.Errorf("opening ledger database: %w", err)
	}
	store := ledger.NewStore(db)

	if genesisPath != "" && store.AccountCount() == 0 {
		doc, err := LoadGenesisDoc(genesisPath)
		if err != nil {
			return err
		}
		if err := ApplyGenesis(store, doc); err != nil {
			return fmt.Errorf("applying genesis block: %w", err)
		}
	}

	threshold := conf.BootstrapAscending.BlockProcessorThreshold
	processor := blockprocessor.New(logger, store, threshold*4)

	network := p2p.NewMemoryNetwork(256)

	svc := bootstrap.New(logger, conf.BootstrapAscending.ToBootstrapConfig(), store, processor, network, nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := processor.Start(runCtx); err != nil {
		return fmt.Errorf("starting block processor: %w", err)
	}
	if err := svc.Start(runCtx); err != nil {
		return fmt.Errorf("starting bootstrap service: %w", err)
	}

	logger.Info("started node", "moniker", conf.Moniker)

	tmos.TrapSignal(logger, func() {
		cancel()
		svc.Wait()
		processor.Wait()
	})

	<-runCtx.Done()
	return nil
}
