package orchestrator

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/metrics"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/signer"
)

type service struct {
	rollupSigner signer.Service
}

// NewService creates an orchestrator that rollup-signs with rollupSigner
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(rollupSigner signer.Service) Service {
	return &service{rollupSigner: rollupSigner}
}

func (s *service) Build(t tx.Tx) (*Envelope, error) {
	if t == nil {
		return nil, errors.New("transaction is nil")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	env := &Envelope{tx: t, state: StateBuilt}
	env.authorized = hasPresetAuth(t)
	metrics.EnvelopeTransitions.WithLabelValues(t.Type().String(), StateBuilt.String()).Inc()

	return env, nil
}

func (s *service) SignRollup(ctx context.Context, env *Envelope) error {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.state != StateBuilt {
		return errors.Wrapf(ErrInvalidTransition, "rollup sign from %s", env.state)
	}
	if err := env.tx.Validate(); err != nil {
		return err
	}

	encoded, err := env.tx.Encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode transaction")
	}
	sig, err := s.rollupSigner.SignTx(env.tx)
	if err != nil {
		return errors.Wrap(err, "failed to rollup sign transaction")
	}

	env.signed = encoded
	env.rollupSig = *sig
	env.transitionLocked(ctx, StateRollupSigned)

	return nil
}

func (s *service) Authenticate(ctx context.Context, env *Envelope, backend auth.Backend, opts AuthOptions) error {
	log := util.LogFromContext(ctx)

	env.mu.Lock()
	if env.authCancel != nil {
		env.mu.Unlock()
		return ErrAuthInProgress
	}
	if err := env.checkIntegrityLocked(ctx); err != nil {
		env.mu.Unlock()
		return err
	}
	if env.state != StateRollupSigned {
		state := env.state
		env.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "authenticate from %s", state)
	}

	typ := env.tx.Type()
	if typ.AuthPolicy() == tx.AuthNone {
		env.mu.Unlock()
		return errors.Wrapf(ErrAuthNotApplicable, "%s", typ)
	}

	req, err := authRequest(env.tx, opts)
	if err != nil {
		env.mu.Unlock()
		return err
	}

	authCtx, cancel := context.WithCancel(ctx)
	env.authCancel = cancel
	env.canceled = false
	env.mu.Unlock()

	log.Info().Str("tx_type", typ.String()).Str("backend", string(backend.Kind())).Bool("interactive", backend.Interactive()).Msg("Requesting base-chain authentication")

	started := time.Now()
	proof, authErr := backend.SignMessage(authCtx, req)
	cancel()

	env.mu.Lock()
	defer env.mu.Unlock()

	env.authCancel = nil
	if env.canceled {
		metrics.ObserveAuth(string(backend.Kind()), metrics.ResultCanceled, started)
		log.Info().Str("tx_type", typ.String()).Msg("Base-chain authentication canceled")
		return ErrAuthCanceled
	}
	if authErr != nil {
		metrics.ObserveAuth(string(backend.Kind()), metrics.ResultError, started)
		log.Warn().Err(authErr).Str("tx_type", typ.String()).Str("backend", string(backend.Kind())).Msg("Base-chain authentication failed")
		return errors.Wrap(authErr, "base-chain authentication failed")
	}
	metrics.ObserveAuth(string(backend.Kind()), metrics.ResultOK, started)

	// Mutate is refused while the call was outstanding; this catches direct edits.
	if err := env.checkIntegrityLocked(ctx); err != nil {
		return err
	}

	if err := env.attachProofLocked(proof); err != nil {
		return err
	}
	env.authorized = true
	env.transitionLocked(ctx, StateBaseChainAuthenticated)

	return nil
}

func (s *service) SignSubmitter(ctx context.Context, env *Envelope, submitter signer.Service) error {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.authCancel != nil {
		return ErrAuthInProgress
	}
	if err := env.checkIntegrityLocked(ctx); err != nil {
		return err
	}
	if env.state != StateRollupSigned && env.state != StateBaseChainAuthenticated {
		return errors.Wrapf(ErrInvalidTransition, "submitter sign from %s", env.state)
	}
	if err := env.requireAuthLocked(); err != nil {
		return err
	}

	hash := tx.HashBytes(env.signed)
	sig, err := submitter.Sign(hash[:])
	if err != nil {
		return errors.Wrap(err, "failed to sign as submitter")
	}

	env.submitter = sig
	env.transitionLocked(ctx, StateSubmitterSigned)

	return nil
}

func (s *service) Finalize(ctx context.Context, env *Envelope) (*SignedEnvelope, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.authCancel != nil {
		return nil, ErrAuthInProgress
	}
	if err := env.checkIntegrityLocked(ctx); err != nil {
		return nil, err
	}
	if env.state == StateBuilt || env.state == StateFinalized {
		return nil, errors.Wrapf(ErrInvalidTransition, "finalize from %s", env.state)
	}
	if err := env.requireAuthLocked(); err != nil {
		return nil, err
	}

	signed := &SignedEnvelope{
		Tx:   env.tx.Clone(),
		Hash: tx.HashBytes(env.signed),
	}
	if env.l1Signature != nil {
		l1 := *env.l1Signature
		l1.Signature = append(l1.Signature[:0:0], env.l1Signature.Signature...)
		signed.Layer1Signature = &l1
	}
	if env.submitter != nil {
		sig := *env.submitter
		signed.SubmitterSignature = &sig
	}

	env.transitionLocked(ctx, StateFinalized)

	return signed, nil
}

func (s *service) Mutate(ctx context.Context, env *Envelope, fn func(tx.Tx) error) error {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.authCancel != nil {
		return ErrAuthInProgress
	}
	if env.state == StateFinalized {
		return errors.Wrap(ErrInvalidTransition, "finalized envelopes are immutable")
	}

	next := env.tx.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	env.tx = next
	env.resetLocked(ctx)

	return nil
}

func (s *service) Cancel(env *Envelope) bool {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.authCancel == nil {
		return false
	}
	env.canceled = true
	env.authCancel()
	return true
}

func (s *service) Run(ctx context.Context, t tx.Tx, opts RunOptions) (*SignedEnvelope, error) {
	env, err := s.Build(t)
	if err != nil {
		return nil, err
	}
	if err := s.SignRollup(ctx, env); err != nil {
		return nil, err
	}

	policy := t.Type().AuthPolicy()
	if shouldAuthenticate(policy, opts.Backend) {
		if err := s.Authenticate(ctx, env, opts.Backend, opts.Auth); err != nil {
			return nil, err
		}
	} else if opts.Backend != nil && policy == tx.AuthOptional {
		util.LogFromContext(ctx).Debug().
			Str("tx_type", t.Type().String()).
			Str("backend", string(opts.Backend.Kind())).
			Msg("Skipping optional base-chain signature")
	}

	if opts.Submitter != nil {
		if err := s.SignSubmitter(ctx, env, opts.Submitter); err != nil {
			return nil, err
		}
	}

	return s.Finalize(ctx, env)
}

func (e *Envelope) transitionLocked(ctx context.Context, to State) {
	util.LogFromContext(ctx).Debug().
		Str("tx_type", e.tx.Type().String()).
		Str("from", e.state.String()).
		Str("to", to.String()).
		Msg("Envelope transition")

	e.state = to
	metrics.EnvelopeTransitions.WithLabelValues(e.tx.Type().String(), to.String()).Inc()
}

// checkIntegrityLocked resets the envelope when the transaction no longer matches what was signed.
func (e *Envelope) checkIntegrityLocked(ctx context.Context) error {
	if e.state == StateBuilt {
		return nil
	}

	encoded, err := e.tx.Encode()
	if err == nil && bytes.Equal(encoded, e.signed) && e.tx.RollupSignature() == e.rollupSig {
		return nil
	}

	util.LogFromContext(ctx).Warn().Str("tx_type", e.tx.Type().String()).Str("state", e.state.String()).Msg("Transaction changed after signing")
	metrics.SignaturesInvalidated.WithLabelValues(e.tx.Type().String()).Inc()
	e.resetLocked(ctx)

	return ErrSignaturesInvalidated
}

func (e *Envelope) resetLocked(ctx context.Context) {
	e.tx.SetRollupSignature(types.ZkSignature{})
	if cpk, ok := e.tx.(*tx.ChangePubKey); ok {
		cpk.EthAuthData = tx.ChangePubKeyAuthData{Kind: tx.AuthDataOnchain}
	}

	e.signed = nil
	e.rollupSig = types.ZkSignature{}
	e.authorized = false
	e.l1Signature = nil
	e.submitter = nil
	e.transitionLocked(ctx, StateBuilt)
}

func (e *Envelope) requireAuthLocked() error {
	if e.tx.Type().AuthPolicy() == tx.AuthRequired && !e.authorized {
		return errors.Wrapf(ErrAuthRequired, "%s", e.tx.Type())
	}
	return nil
}

func (e *Envelope) attachProofLocked(proof auth.Proof) error {
	if cpk, ok := e.tx.(*tx.ChangePubKey); ok {
		if proof.Kind == auth.ProofCreate2 && proof.Create2 == nil {
			return errors.Wrap(ErrUnsupportedProof, "create2 proof without deployment data")
		}
		if proof.Kind == auth.ProofStark {
			return errors.Wrapf(ErrUnsupportedProof, "%s proof for %s", proof.Kind, e.tx.Type())
		}
		cpk.EthAuthData = proof.ChangePubKeyAuthData()
		return nil
	}

	l1, ok := proof.Layer1Signature()
	if !ok {
		return errors.Wrapf(ErrUnsupportedProof, "%s proof for %s", proof.Kind, e.tx.Type())
	}
	e.l1Signature = l1
	return nil
}

// shouldAuthenticate skips optional signatures for backends that cannot produce one.
func shouldAuthenticate(policy tx.AuthPolicy, backend auth.Backend) bool {
	switch {
	case backend == nil || policy == tx.AuthNone:
		return false
	case policy == tx.AuthRequired:
		return true
	default:
		return backend.Kind().SignsMessages()
	}
}

// hasPresetAuth reports whether the builder already supplied a base-chain signature.
func hasPresetAuth(t tx.Tx) bool {
	cpk, ok := t.(*tx.ChangePubKey)
	return ok && cpk.EthAuthData.Kind == tx.AuthDataEthECDSA && len(cpk.EthAuthData.EthSignature) > 0
}

func authRequest(t tx.Tx, opts AuthOptions) (*auth.Request, error) {
	req := &auth.Request{NetworkID: opts.NetworkID, Account: opts.Account}

	switch v := t.(type) {
	case *tx.ChangePubKey:
		typed := v.TypedData(opts.NetworkID, opts.MainContract)
		req.TypedData = &typed
		req.PubKeyHash = v.NewPkHash
		req.Nonce = v.Nonce
	case *tx.Transfer:
		req.Message = []byte(v.EthSignMessage(opts.TokenSymbol))
	case *tx.Withdraw:
		req.Message = []byte(v.EthSignMessage(opts.TokenSymbol))
	case *tx.ForcedExit:
		req.Message = []byte(v.EthSignMessage(opts.TokenSymbol))
	case *tx.OrderMatching:
		req.Message = []byte(v.EthSignMessage())
	default:
		return nil, errors.Wrapf(ErrAuthNotApplicable, "%s", t.Type())
	}

	return req, nil
}
