package submit

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/metrics"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/orchestrator"
)

// ErrSubmissionUnknown means the operator could not be asked whether an ambiguous submission landed.
// The transaction was not resent; check it later by hash.
var ErrSubmissionUnknown = errors.New("submission outcome unknown")

type lookupResult int

const (
	lookupUnknown lookupResult = iota
	lookupFound
	lookupNotFound
)

// Submit sends a finalized envelope. A JSON-RPC error is returned as *types.SubmissionRejectedError.
// After an ambiguous failure the operator is asked for the transaction by hash, and it is only
// resent once the operator confirms it never saw it.
func (c *Client) Submit(ctx context.Context, env *orchestrator.SignedEnvelope) (types.TxHash, error) {
	log := util.LogFromContext(ctx)

	if env == nil || env.Tx == nil {
		return types.TxHash{}, errors.New("envelope is empty")
	}

	body, err := tx.MarshalTx(env.Tx)
	if err != nil {
		return types.TxHash{}, err
	}

	for attempt := 0; ; attempt++ {
		var hash types.TxHash
		err := c.call(ctx, &hash, "sendTransaction", rawJSON(body), env.Layer1Signature, env.SubmitterSignature)
		if err == nil {
			if hash.IsZero() {
				hash = env.Hash
			} else if hash != env.Hash {
				log.Warn().Str("tx_hash", env.Hash.String()).Str("operator_hash", hash.String()).Msg("Operator returned a different transaction hash")
			}
			metrics.Submissions.WithLabelValues(metrics.ResultOK).Inc()
			log.Info().Str("tx_hash", hash.String()).Str("tx_type", env.Tx.Type().String()).Int("attempt", attempt).Msg("Transaction submitted")
			return hash, nil
		}

		if rejected := asRejection(err); rejected != nil {
			metrics.Submissions.WithLabelValues(metrics.ResultRejected).Inc()
			log.Warn().Int("code", rejected.Code).Str("reason", rejected.Reason).Str("tx_hash", env.Hash.String()).Msg("Transaction rejected by operator")
			return types.TxHash{}, rejected
		}
		if ctx.Err() != nil {
			// the request may still have reached the operator
			metrics.Submissions.WithLabelValues(metrics.ResultUnknown).Inc()
			return types.TxHash{}, errors.Wrap(ErrSubmissionUnknown, ctx.Err().Error())
		}

		log.Warn().Err(err).Str("tx_hash", env.Hash.String()).Int("attempt", attempt).Msg("Ambiguous submission failure, checking operator")

		switch c.lookup(ctx, env.Hash) {
		case lookupFound:
			metrics.Submissions.WithLabelValues(metrics.ResultOK).Inc()
			log.Info().Str("tx_hash", env.Hash.String()).Msg("Operator already has the transaction")
			return env.Hash, nil
		case lookupUnknown:
			metrics.Submissions.WithLabelValues(metrics.ResultUnknown).Inc()
			return types.TxHash{}, errors.Wrapf(ErrSubmissionUnknown, "%s: %v", env.Hash, err)
		case lookupNotFound:
		}

		if attempt >= c.retry.MaxResubmits {
			metrics.Submissions.WithLabelValues(metrics.ResultError).Inc()
			return types.TxHash{}, errors.Wrapf(err, "submission failed after %d resubmits", attempt)
		}

		metrics.Resubmissions.Inc()
		log.Info().Str("tx_hash", env.Hash.String()).Int("attempt", attempt+1).Msg("Operator never saw the transaction, resubmitting")
	}
}

// lookup asks the operator for the transaction, retrying transport failures with backoff. A null
// result or an error classified by txNotFound means the operator never saw it.
func (c *Client) lookup(ctx context.Context, hash types.TxHash) lookupResult {
	var resp *TxResp
	op := func() error {
		resp = nil
		err := c.call(ctx, &resp, "getTransactionByHash", hash, false)
		if err != nil && isRejection(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		if rejected := asRejection(err); rejected != nil && c.txNotFound(rejected) {
			return lookupNotFound
		}
		c.logger.Warn().Err(err).Str("tx_hash", hash.String()).Msg("Could not determine whether the operator has the transaction")
		return lookupUnknown
	}
	if resp == nil {
		return lookupNotFound
	}
	return lookupFound
}

// rawJSON embeds already encoded JSON as a call parameter.
func rawJSON(b []byte) json.RawMessage {
	return json.RawMessage(b)
}
