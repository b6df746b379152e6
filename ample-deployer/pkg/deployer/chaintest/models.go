package chaintest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

// InitialFragmentsSupply is the AMPL supply minted to the owner on initialization.
var InitialFragmentsSupply = new(big.Int).Mul(big.NewInt(50_000_000), big.NewInt(1_000_000_000))

// MinRebaseTimeIntervalSec is the policy's rebase cadence.
const MinRebaseTimeIntervalSec = 24 * 60 * 60

var models map[string]map[string]handler

func init() {
	models = map[string]map[string]handler{
		standard.ProxyAdminArtifact: {
			ConstructorMethod:        setOwner,
			"owner":                  getter("owner"),
			"getProxyImplementation": proxyImplementation,
			"getProxyAdmin":          proxyAdmin,
		},
		standard.UFragmentsArtifact: {
			"initialize":        amplInitialize,
			"setMonetaryPolicy": onlyOwnerSetter("monetaryPolicy"),
			"monetaryPolicy":    getter("monetaryPolicy"),
			"owner":             getter("owner"),
			"transfer":          amplTransfer,
			"balanceOf":         amplBalanceOf,
			"totalSupply":       getter("totalSupply"),
			"rebase":            amplRebase,
		},
		standard.UFragmentsPolicyArtifact: {
			"initialize":                         policyInitialize,
			"setOrchestrator":                    onlyOwnerSetter("orchestrator"),
			"setMarketOracle":                    onlyOwnerSetter("marketOracle"),
			"setCpiOracle":                       onlyOwnerSetter("cpiOracle"),
			"rebase":                             policyRebase,
			"epoch":                              getter("epoch"),
			"globalAmpleforthEpochAndAMPLSupply": policyEpochAndSupply,
			"orchestrator":                       getter("orchestrator"),
			"marketOracle":                       getter("marketOracle"),
			"cpiOracle":                          getter("cpiOracle"),
			"uFrags":                             getter("uFrags"),
			"lastRebaseTimestampSec":             getter("lastRebaseTimestampSec"),
			"minRebaseTimeIntervalSec":           getter("minRebaseTimeIntervalSec"),
		},
		standard.OrchestratorArtifact: {
			ConstructorMethod: orchestratorConstruct,
			"rebase":          orchestratorRebase,
			"policy":          getter("policy"),
		},
		standard.MedianOracleArtifact: {
			ConstructorMethod:         oracleConstruct,
			"addProvider":             oracleAddProvider,
			"pushReport":              oraclePushReport,
			"getData":                 oracleGetData,
			"providersSize":           oracleProvidersSize,
			"reportExpirationTimeSec": getter("reportExpirationTimeSec"),
		},
		standard.XCAmpleArtifact: {
			"initialize":       xcAmpleInitialize,
			"setController":    onlyOwnerSetter("controller"),
			"controller":       getter("controller"),
			"globalAMPLSupply": getter("globalAMPLSupply"),
			"totalSupply":      getter("totalSupply"),
			"name":             getter("name"),
			"symbol":           getter("symbol"),
		},
		standard.XCAmpleControllerArtifact: {
			"initialize":            controllerInitialize,
			"setRebaseRelayer":      onlyOwnerSetter("rebaseRelayer"),
			"globalAmpleforthEpoch": getter("globalAmpleforthEpoch"),
			"xcAmple":               getter("xcAmple"),
			"rebaseRelayer":         getter("rebaseRelayer"),
		},
		standard.BatchTxExecutorArtifact: {
			ConstructorMethod:  setOwner,
			"owner":            getter("owner"),
			"transactionsSize": func(*Chain, *instance, common.Address, []any) ([]any, error) { return []any{new(big.Int)}, nil },
		},
	}
}

func getter(key string) handler {
	return func(_ *Chain, self *instance, _ common.Address, _ []any) ([]any, error) {
		switch v := self.state[key].(type) {
		case *big.Int:
			return []any{new(big.Int).Set(v)}, nil
		case nil:
			return nil, fmt.Errorf("%s is not set", key)
		default:
			return []any{v}, nil
		}
	}
}

func setOwner(_ *Chain, self *instance, from common.Address, _ []any) ([]any, error) {
	self.state["owner"] = from
	return nil, nil
}

func onlyOwnerSetter(key string) handler {
	return func(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
		if self.address("owner") != from {
			return nil, errUnauthorized
		}
		self.state[key] = args[0].(common.Address)
		return nil, nil
	}
}

func initializer(self *instance) error {
	if self.state["initialized"] == true {
		return errors.New("Initializable: contract is already initialized")
	}
	self.state["initialized"] = true
	return nil
}

func proxyImplementation(c *Chain, _ *instance, _ common.Address, args []any) ([]any, error) {
	p, ok := c.instances[args[0].(common.Address)]
	if !ok || p.impl == (common.Address{}) {
		return nil, errors.New("not a proxy")
	}
	return []any{p.impl}, nil
}

func proxyAdmin(c *Chain, _ *instance, _ common.Address, args []any) ([]any, error) {
	p, ok := c.instances[args[0].(common.Address)]
	if !ok || p.impl == (common.Address{}) {
		return nil, errors.New("not a proxy")
	}
	return []any{p.address("__admin")}, nil
}

func amplInitialize(_ *Chain, self *instance, _ common.Address, args []any) ([]any, error) {
	if err := initializer(self); err != nil {
		return nil, err
	}
	owner := args[0].(common.Address)
	self.state["owner"] = owner
	self.state["totalSupply"] = new(big.Int).Set(InitialFragmentsSupply)
	self.balances[owner] = new(big.Int).Set(InitialFragmentsSupply)
	return nil, nil
}

func balance(self *instance, who common.Address) *big.Int {
	if b, ok := self.balances[who]; ok {
		return b
	}
	return new(big.Int)
}

func amplTransfer(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	to := args[0].(common.Address)
	value := args[1].(*big.Int)
	fromBal := balance(self, from)
	if fromBal.Cmp(value) < 0 {
		return nil, errors.New("SafeMath: subtraction overflow")
	}
	self.balances[from] = new(big.Int).Sub(fromBal, value)
	self.balances[to] = new(big.Int).Add(balance(self, to), value)
	return []any{true}, nil
}

func amplBalanceOf(_ *Chain, self *instance, _ common.Address, args []any) ([]any, error) {
	return []any{new(big.Int).Set(balance(self, args[0].(common.Address)))}, nil
}

func amplRebase(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	if self.address("monetaryPolicy") != from {
		return nil, errors.New("only monetary policy")
	}
	delta := args[1].(*big.Int)
	supply := new(big.Int).Add(self.bigint("totalSupply"), delta)
	self.state["totalSupply"] = supply
	return []any{new(big.Int).Set(supply)}, nil
}

func policyInitialize(_ *Chain, self *instance, _ common.Address, args []any) ([]any, error) {
	if err := initializer(self); err != nil {
		return nil, err
	}
	self.state["owner"] = args[0].(common.Address)
	self.state["uFrags"] = args[1].(common.Address)
	self.state["baseCpi"] = new(big.Int).Set(args[2].(*big.Int))
	self.state["epoch"] = new(big.Int)
	self.state["lastRebaseTimestampSec"] = new(big.Int)
	self.state["minRebaseTimeIntervalSec"] = big.NewInt(MinRebaseTimeIntervalSec)
	return nil, nil
}

func policyEpochAndSupply(c *Chain, self *instance, _ common.Address, _ []any) ([]any, error) {
	out, err := c.callAs(self.addr, self.address("uFrags"), "totalSupply")
	if err != nil {
		return nil, err
	}
	return []any{self.bigint("epoch"), out[0]}, nil
}

func oracleReport(c *Chain, policy *instance, key string) (*big.Int, error) {
	oracle := policy.address(key)
	if oracle == (common.Address{}) {
		return nil, fmt.Errorf("%s not set", key)
	}
	out, err := c.callAs(policy.addr, oracle, "getData")
	if err != nil {
		return nil, err
	}
	if valid, _ := out[1].(bool); !valid {
		return nil, fmt.Errorf("%s data invalid", key)
	}
	return out[0].(*big.Int), nil
}

// policyRebase applies the UFragmentsPolicy supply adjustment without smoothing:
// supplyDelta = supply * (rate - target) / target, where target = 1e18 * cpi / baseCpi,
// and no adjustment within a 5% deviation threshold.
func policyRebase(c *Chain, self *instance, from common.Address, _ []any) ([]any, error) {
	if self.address("orchestrator") != from {
		return nil, errors.New("only orchestrator")
	}
	cpi, err := oracleReport(c, self, "cpiOracle")
	if err != nil {
		return nil, err
	}
	rate, err := oracleReport(c, self, "marketOracle")
	if err != nil {
		return nil, err
	}
	epoch := new(big.Int).Add(self.bigint("epoch"), common.Big1)
	self.state["epoch"] = epoch
	self.state["lastRebaseTimestampSec"] = new(big.Int).SetUint64(c.time)

	target := new(big.Int).Mul(standard.AmplBaseRate, cpi)
	target.Div(target, self.bigint("baseCpi"))
	supplyOut, err := c.callAs(self.addr, self.address("uFrags"), "totalSupply")
	if err != nil {
		return nil, err
	}
	supply := supplyOut[0].(*big.Int)

	diff := new(big.Int).Sub(rate, target)
	threshold := new(big.Int).Div(target, big.NewInt(20))
	delta := new(big.Int)
	if new(big.Int).Abs(diff).Cmp(threshold) >= 0 {
		delta.Mul(supply, diff)
		delta.Quo(delta, target)
	}
	_, err = c.callAs(self.addr, self.address("uFrags"), "rebase", epoch, delta)
	return nil, err
}

func orchestratorConstruct(_ *Chain, self *instance, _ common.Address, args []any) ([]any, error) {
	self.state["policy"] = args[0].(common.Address)
	return nil, nil
}

func orchestratorRebase(c *Chain, self *instance, _ common.Address, _ []any) ([]any, error) {
	return c.callAs(self.addr, self.address("policy"), "rebase")
}

func oracleConstruct(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	self.state["owner"] = from
	self.state["reportExpirationTimeSec"] = new(big.Int).Set(args[0].(*big.Int))
	self.state["reportDelaySec"] = new(big.Int).Set(args[1].(*big.Int))
	self.state["minimumProviders"] = new(big.Int).Set(args[2].(*big.Int))
	return nil, nil
}

func providers(self *instance) []common.Address {
	p, _ := self.state["providers"].([]common.Address)
	return p
}

func oracleAddProvider(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	if self.address("owner") != from {
		return nil, errUnauthorized
	}
	p := args[0].(common.Address)
	for _, existing := range providers(self) {
		if existing == p {
			return nil, errors.New("provider already added")
		}
	}
	self.state["providers"] = append(append([]common.Address(nil), providers(self)...), p)
	return nil, nil
}

func oraclePushReport(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	for _, p := range providers(self) {
		if p == from {
			self.state["report"] = new(big.Int).Set(args[0].(*big.Int))
			return nil, nil
		}
	}
	return nil, errors.New("only providers can push reports")
}

func oracleGetData(_ *Chain, self *instance, _ common.Address, _ []any) ([]any, error) {
	minProviders := self.bigint("minimumProviders")
	report, ok := self.state["report"].(*big.Int)
	if !ok || len(providers(self)) < int(minProviders.Int64()) {
		return []any{new(big.Int), false}, nil
	}
	return []any{new(big.Int).Set(report), true}, nil
}

func oracleProvidersSize(_ *Chain, self *instance, _ common.Address, _ []any) ([]any, error) {
	return []any{big.NewInt(int64(len(providers(self))))}, nil
}

func xcAmpleInitialize(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	if err := initializer(self); err != nil {
		return nil, err
	}
	self.state["owner"] = from
	self.state["name"] = args[0].(string)
	self.state["symbol"] = args[1].(string)
	self.state["globalAMPLSupply"] = new(big.Int).Set(args[2].(*big.Int))
	self.state["totalSupply"] = new(big.Int)
	return nil, nil
}

func controllerInitialize(_ *Chain, self *instance, from common.Address, args []any) ([]any, error) {
	if err := initializer(self); err != nil {
		return nil, err
	}
	self.state["owner"] = from
	self.state["xcAmple"] = args[0].(common.Address)
	self.state["globalAmpleforthEpoch"] = new(big.Int).Set(args[1].(*big.Int))
	return nil, nil
}
