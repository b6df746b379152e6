package deployer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/artifacts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/broadcaster"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/contracts"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/registry"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/verify"
	oplog "github.com/vidit21srivastava/cross-chain-ample/ample-service/log"
	"github.com/vidit21srivastava/cross-chain-ample/ample-service/signer"
)

// Session is an open connection to one network.
type Session struct {
	Network string
	Chain   contracts.Chain
	// RPC is nil for sessions that are not backed by a node.
	RPC            *rpc.Client
	ExplorerAPIURL string

	closers []func()
}

func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Dialer opens a session with network. A read-only session cannot send transactions
// and needs no signer.
type Dialer func(ctx context.Context, network string, readOnly bool) (*Session, error)

// Env is everything a task uses from outside the process.
type Env struct {
	Logger   log.Logger
	Registry *registry.Store
	Provider *contracts.Provider
	// FS reads local input files.
	FS   afero.Fs
	Dial Dialer
	// NewVerifier returns nil when verification is disabled for the session.
	NewVerifier func(sess *Session) (*verify.Verifier, error)
	Out         io.Writer
}

type DialerConfig struct {
	Logger   log.Logger
	Networks *Networks
	Provider *contracts.Provider
	Signer   signer.CLIConfig
	TxParams TxParams
}

// NewDialer dials networks from the networks file. Signing sessions load the signer
// and resolve the transaction parameters once.
func NewDialer(cfg DialerConfig) Dialer {
	return func(ctx context.Context, network string, readOnly bool) (*Session, error) {
		lgr := cfg.Logger.New("network", network)
		net, err := cfg.Networks.Get(network)
		if err != nil {
			return nil, err
		}
		rpcClient, err := rpc.DialContext(ctx, net.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", network, err)
		}
		sess := &Session{Network: network, RPC: rpcClient, ExplorerAPIURL: net.ExplorerAPIURL}
		sess.closers = append(sess.closers, rpcClient.Close)
		client := ethclient.NewClient(rpcClient)

		chainID, err := client.ChainID(ctx)
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("failed to get chain ID of %s: %w", network, err)
		}
		if net.ChainID != 0 && chainID.Uint64() != net.ChainID {
			sess.Close()
			return nil, configErrorf("network %s: node reports chain ID %d, expected %d", network, chainID, net.ChainID)
		}

		bcfg := broadcaster.Config{
			Logger:    lgr,
			Backend:   client,
			Factories: cfg.Provider,
			ChainID:   chainID,
		}
		if !readOnly {
			s, err := signer.Load(ctx, lgr, cfg.Signer)
			if errors.Is(err, signer.ErrNoSigner) || errors.Is(err, signer.ErrMultipleSigners) {
				sess.Close()
				return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
			}
			if err != nil {
				sess.Close()
				return nil, fmt.Errorf("failed to load signer: %w", err)
			}
			sess.closers = append(sess.closers, func() { _ = s.Close() })
			params, err := ResolveTxParams(ctx, cfg.TxParams, client)
			if err != nil {
				sess.Close()
				return nil, err
			}
			bcfg.Signer = s
			bcfg.GasPrice = params.GasPrice
			bcfg.GasLimit = params.GasLimit
			lgr.Info("Opened signing session", "deployer", s.Address(), "chainID", chainID,
				"gasPrice", params.GasPrice, "gasLimit", params.GasLimit)
		}
		b, err := broadcaster.New(bcfg)
		if err != nil {
			sess.Close()
			return nil, err
		}
		sess.Chain = b
		return sess, nil
	}
}

// lazyDialer loads the networks file on the first dial, so tasks that never
// touch a node run without one.
func lazyDialer(fs afero.Fs, path string, cfg DialerConfig) Dialer {
	var (
		once sync.Once
		dial Dialer
		err  error
	)
	return func(ctx context.Context, network string, readOnly bool) (*Session, error) {
		once.Do(func() {
			cfg.Networks, err = LoadNetworks(fs, path)
			if err == nil {
				dial = NewDialer(cfg)
			}
		})
		if err != nil {
			return nil, err
		}
		return dial(ctx, network, readOnly)
	}
}

// NewEnvFromCLI builds the task environment from the global flags. Transaction
// parameters are read from the command's flags when it has them.
func NewEnvFromCLI(cliCtx *cli.Context) (*Env, error) {
	logCfg := oplog.ReadCLIConfig(cliCtx)
	lgr := oplog.NewLogger(oplog.AppOut(cliCtx), logCfg)
	oplog.SetGlobalLogHandler(lgr.Handler())

	osFs := afero.NewOsFs()
	var txParams TxParams
	if cliCtx.IsSet(GasPriceFlagName) || cliCtx.IsSet(GasLimitFlagName) {
		var err error
		if txParams, err = ReadTxParams(cliCtx); err != nil {
			return nil, err
		}
	}
	provider := contracts.NewProvider(artifacts.NewFS(osFs, cliCtx.String(ArtifactsDirFlagName)))
	signerCfg := signer.ReadCLIConfig(cliCtx)

	apiKey := cliCtx.String(EtherscanAPIKeyFlagName)
	skipVerify := cliCtx.Bool(SkipVerifyFlagName)
	return &Env{
		Logger:   lgr,
		Registry: registry.NewStore(osFs, cliCtx.String(DeploymentsDirFlagName)),
		Provider: provider,
		FS:       osFs,
		Dial: lazyDialer(osFs, cliCtx.String(NetworksFlagName), DialerConfig{
			Logger:   lgr,
			Provider: provider,
			Signer:   signerCfg,
			TxParams: txParams,
		}),
		NewVerifier: func(sess *Session) (*verify.Verifier, error) {
			switch {
			case skipVerify:
				return nil, nil
			case apiKey == "":
				lgr.Warn("No explorer API key, skipping verification", "network", sess.Network)
				return nil, nil
			case sess.ExplorerAPIURL == "":
				lgr.Warn("No explorer-api-url configured, skipping verification", "network", sess.Network)
				return nil, nil
			}
			return verify.NewVerifier(apiKey, sess.ExplorerAPIURL, provider.Artifacts(), lgr.New("network", sess.Network))
		},
		Out: cliCtx.App.Writer,
	}, nil
}
