package solana

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const defaultPollInterval = 700 * time.Millisecond

// Client 包装Solana RPC，所有阻塞调用都接收 context
type Client struct {
	rpcClient    *rpc.Client
	pollInterval time.Duration
}

// New 创建新的Solana客户端
func New(endpoint string, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Client{
		rpcClient:    rpc.New(endpoint),
		pollInterval: pollInterval,
	}
}

// Close 关闭客户端连接
func (c *Client) Close() error {
	return c.rpcClient.Close()
}

// LatestBlockhash 获取最新区块哈希及其最后有效区块高度
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	out, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, 0, &common.NetworkError{Op: "getLatestBlockhash", Err: err}
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

// SendRawTransaction 发送已签名交易
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte, skipPreflight bool) (solana.Signature, error) {
	sig, err := c.rpcClient.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, &common.NetworkError{Op: "sendRawTransaction", Err: err}
	}
	return sig, nil
}

// ConfirmTransaction 轮询签名状态直到 confirmed，区块高度超过 lastValidBlockHeight 时放弃
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &common.NetworkError{Op: "confirmTransaction", Err: ctx.Err()}
		case <-ticker.C:
			result, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
			if err == nil && len(result.Value) > 0 && result.Value[0] != nil {
				status := result.Value[0]
				if status.Err != nil {
					return &common.NetworkError{Op: "confirmTransaction", Err: fmt.Errorf("交易执行失败: %v", status.Err)}
				}
				if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
					status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
					return nil
				}
			}

			height, err := c.rpcClient.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
			if err != nil {
				common.Log.WithError(err).Debug("获取区块高度失败，继续轮询")
				continue
			}
			if height > lastValidBlockHeight {
				return &common.NetworkError{Op: "confirmTransaction", Err: common.ErrBlockHeightPast}
			}
		}
	}
}

// GetBalance 获取 SOL 余额（lamports）
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpcClient.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, &common.NetworkError{Op: "getBalance", Err: err}
	}
	return out.Value, nil
}

// GetTokenBalance 获取代币账户余额（最小单位），账户不存在时返回0
func (c *Client) GetTokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpcClient.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		if isAccountNotFound(err) {
			return 0, nil
		}
		return 0, &common.NetworkError{Op: "getTokenAccountBalance", Err: err}
	}
	if out.Value == nil {
		return 0, nil
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析代币余额失败: %w", err)
	}
	return amount, nil
}

// 从未买入的钱包没有 ATA，节点返回 "Invalid param: could not find account"
func isAccountNotFound(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(rpcErr.Message, "could not find account")
}
