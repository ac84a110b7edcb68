package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"stakeledger/native/rewardpool"
)

type stakeParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type claimParams struct {
	Account string `json:"account"`
}

type setRateParams struct {
	Rate string `json:"rate"`
}

type stakeResult struct {
	Account     string `json:"account"`
	Staked      string `json:"staked"`
	TotalStaked string `json:"totalStaked"`
}

type claimResult struct {
	Account string `json:"account"`
	Reward  string `json:"reward"`
	Balance string `json:"balance"`
}

type estimateResult struct {
	Account     string `json:"account"`
	DailyReward string `json:"dailyReward"`
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func decodeSingleParam(params []json.RawMessage, out interface{}) error {
	if len(params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return fmt.Errorf("invalid parameter object")
	}
	return nil
}

// writeEngineError maps engine sentinel errors onto RPC error codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, rewardpool.ErrInvalidAmount),
		errors.Is(err, rewardpool.ErrInsufficientStake),
		errors.Is(err, rewardpool.ErrInvalidRate):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, rewardpool.ErrReentrant):
		writeError(w, http.StatusConflict, id, codeBusy, "another operation is in flight", nil)
	case errors.Is(err, rewardpool.ErrTransferFailed):
		writeError(w, http.StatusBadRequest, id, codeTransferFailed, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.guardMutation(w, r, req) {
		return
	}
	var params stakeParams
	if err := decodeSingleParam(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account := strings.TrimSpace(params.Account)
	if account == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "account is required", nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Deposit(account, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakeResult{
		Account:     account,
		Staked:      s.engine.Staked(account).String(),
		TotalStaked: s.engine.TotalStaked().String(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.guardMutation(w, r, req) {
		return
	}
	var params stakeParams
	if err := decodeSingleParam(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account := strings.TrimSpace(params.Account)
	if account == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "account is required", nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Withdraw(account, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakeResult{
		Account:     account,
		Staked:      s.engine.Staked(account).String(),
		TotalStaked: s.engine.TotalStaked().String(),
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.guardMutation(w, r, req) {
		return
	}
	var params claimParams
	if err := decodeSingleParam(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account := strings.TrimSpace(params.Account)
	if account == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "account is required", nil)
		return
	}
	reward, err := s.engine.Claim(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{
		Account: account,
		Reward:  reward.String(),
		Balance: s.ledger.BalanceOf(account).String(),
	})
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.guardMutation(w, r, req) {
		return
	}
	var params setRateParams
	if err := decodeSingleParam(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rate, err := parseAmount(params.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetRate(rate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"rate": rate.String()})
}

func parseAccountParam(params []json.RawMessage) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("account parameter required")
	}
	var account string
	if err := json.Unmarshal(params[0], &account); err != nil {
		return "", fmt.Errorf("invalid account parameter")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return "", fmt.Errorf("account is required")
	}
	return account, nil
}

func (s *Server) handleEarned(w http.ResponseWriter, req *RPCRequest) {
	account, err := parseAccountParam(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	earned, err := s.engine.Earned(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"account": account, "earned": earned.String()})
}

func (s *Server) handleRewardPerUnit(w http.ResponseWriter, req *RPCRequest) {
	value, err := s.engine.RewardPerUnit()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"rewardPerUnit": value.String(),
		"scale":         rewardpool.Scale().String(),
	})
}

func (s *Server) handleGetStaked(w http.ResponseWriter, req *RPCRequest) {
	account, err := parseAccountParam(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"account": account, "staked": s.engine.Staked(account).String()})
}

func (s *Server) handleGetTotalStaked(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, map[string]string{"totalStaked": s.engine.TotalStaked().String()})
}

func (s *Server) handleGetRate(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, map[string]string{"rate": s.engine.Rate().String()})
}

func (s *Server) handleEstimateDailyReward(w http.ResponseWriter, req *RPCRequest) {
	account, err := parseAccountParam(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, estimateResult{
		Account:     account,
		DailyReward: s.engine.EstimateDailyReward(account).String(),
	})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	account, err := parseAccountParam(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"account": account, "balance": s.ledger.BalanceOf(account).String()})
}
