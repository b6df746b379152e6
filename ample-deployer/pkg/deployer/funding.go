package deployer

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/pipeline"
	"github.com/vidit21srivastava/cross-chain-ample/ample-deployer/pkg/deployer/standard"
)

// ParseFunding turns a JSON list of wallets and a decimal AMPL amount into transfers.
func ParseFunding(walletsJSON string, amount string) ([]pipeline.Funding, error) {
	walletsJSON = strings.TrimSpace(walletsJSON)
	if walletsJSON == "" {
		return nil, nil
	}
	var wallets []string
	if err := json.Unmarshal([]byte(walletsJSON), &wallets); err != nil {
		return nil, configErrorf("--%s must be a JSON list of addresses: %v", FundingWalletsFlagName, err)
	}
	if len(wallets) == 0 {
		return nil, nil
	}
	value, err := standard.ToAmplFixedPt(amount)
	if err != nil {
		return nil, configErrorf("invalid --%s: %v", AmountFlagName, err)
	}
	out := make([]pipeline.Funding, 0, len(wallets))
	for _, w := range wallets {
		if !common.IsHexAddress(w) {
			return nil, configErrorf("invalid funding wallet %q", w)
		}
		out = append(out, pipeline.Funding{Recipient: common.HexToAddress(w), Amount: value})
	}
	return out, nil
}
