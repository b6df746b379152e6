package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var (
	ErrVerificationTransient = errors.New("transient verification failure")
	ErrVerificationRejected  = errors.New("verification rejected")
)

const (
	// DefaultRequestsPerSecond is the free-tier limit of most explorers.
	DefaultRequestsPerSecond = 5

	defaultPollInterval = 5 * time.Second
	defaultMaxPolls     = 30
	requestTimeout      = 30 * time.Second

	statusOK            = "1"
	resultAlreadyPassed = "already verified"
	resultPending       = "pending in queue"
	resultPass          = "pass - verified"
	resultRateLimited   = "max rate limit reached"
)

type EtherscanGenericResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// EtherscanClient talks to an Etherscan-compatible contract verification API.
type EtherscanClient struct {
	apiKey      string
	url         string
	rateLimiter *rate.Limiter
	http        *resty.Client

	pollInterval time.Duration
	maxPolls     int
}

func NewEtherscanClient(apiKey string, url string, rateLimiter *rate.Limiter) *EtherscanClient {
	return &EtherscanClient{
		apiKey:       apiKey,
		url:          url,
		rateLimiter:  rateLimiter,
		http:         resty.New().SetTimeout(requestTimeout),
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}
}

// SourceSubmission is everything the explorer needs to rebuild a contract.
type SourceSubmission struct {
	Address common.Address
	// ContractName is the fully qualified "<source>:<name>".
	ContractName    string
	CompilerVersion string
	// StandardJSONInput is the solc standard-json input the contract was compiled from.
	StandardJSONInput json.RawMessage
	ConstructorArgs   []byte
}

func (c *EtherscanClient) do(ctx context.Context, method string, params map[string]string) (*EtherscanGenericResp, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrVerificationTransient, err)
	}
	params["apikey"] = c.apiKey
	req := c.http.R().SetContext(ctx)
	if method == http.MethodPost {
		req.SetFormData(params)
	} else {
		req.SetQueryParams(params)
	}
	resp, err := req.Execute(method, c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationTransient, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: explorer returned %s", ErrVerificationTransient, resp.Status())
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: explorer returned %s", ErrVerificationRejected, resp.Status())
	}
	var out EtherscanGenericResp
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: invalid explorer response: %v", ErrVerificationTransient, err)
	}
	if out.Status != statusOK && strings.Contains(strings.ToLower(out.Result), resultRateLimited) {
		return nil, fmt.Errorf("%w: %s", ErrVerificationTransient, out.Result)
	}
	return &out, nil
}

// IsVerified reports whether the explorer already has source code for address.
func (c *EtherscanClient) IsVerified(ctx context.Context, address common.Address) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, map[string]string{
		"module":  "contract",
		"action":  "getabi",
		"address": address.Hex(),
	})
	if err != nil {
		return false, err
	}
	return resp.Status == statusOK, nil
}

// SubmitSource submits a verification request and returns its GUID. An empty GUID
// means the explorer reported the contract as already verified.
func (c *EtherscanClient) SubmitSource(ctx context.Context, s SourceSubmission) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, map[string]string{
		"module":          "contract",
		"action":          "verifysourcecode",
		"contractaddress": s.Address.Hex(),
		"codeformat":      "solidity-standard-json-input",
		"sourceCode":      string(s.StandardJSONInput),
		"contractname":    s.ContractName,
		"compilerversion": s.CompilerVersion,
		// sic
		"constructorArguements": hex.EncodeToString(s.ConstructorArgs),
	})
	if err != nil {
		return "", err
	}
	if resp.Status == statusOK {
		return resp.Result, nil
	}
	if strings.Contains(strings.ToLower(resp.Result), resultAlreadyPassed) {
		return "", nil
	}
	return "", fmt.Errorf("%w: %s: %s", ErrVerificationRejected, resp.Message, resp.Result)
}

// PollStatus waits for the verification request guid to finish.
func (c *EtherscanClient) PollStatus(ctx context.Context, guid string) error {
	for i := 0; i < c.maxPolls; i++ {
		resp, err := c.do(ctx, http.MethodGet, map[string]string{
			"module": "contract",
			"action": "checkverifystatus",
			"guid":   guid,
		})
		if err != nil {
			return err
		}
		result := strings.ToLower(resp.Result)
		switch {
		case resp.Status == statusOK, strings.Contains(result, resultPass), strings.Contains(result, resultAlreadyPassed):
			return nil
		case strings.Contains(result, resultPending):
		default:
			return fmt.Errorf("%w: %s", ErrVerificationRejected, resp.Result)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrVerificationTransient, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
	return fmt.Errorf("%w: verification %s still pending after %d polls", ErrVerificationTransient, guid, c.maxPolls)
}
