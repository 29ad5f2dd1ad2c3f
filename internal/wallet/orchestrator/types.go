package orchestrator

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/signer"
)

var (
	// ErrAuthInProgress is returned while a base-chain authentication call is outstanding for the envelope.
	ErrAuthInProgress = errors.New("base-chain authentication already in progress")
	// ErrAuthCanceled is returned when Cancel interrupted an authentication call.
	ErrAuthCanceled = errors.New("base-chain authentication canceled")
	// ErrAuthNotApplicable is returned for transaction kinds that carry no base-chain proof.
	ErrAuthNotApplicable = errors.New("transaction kind takes no base-chain authentication")
	// ErrAuthRequired is returned when a kind that requires base-chain authentication skips it.
	ErrAuthRequired = errors.New("base-chain authentication required")
	// ErrUnsupportedProof is returned when a backend's proof cannot accompany the transaction kind.
	ErrUnsupportedProof = errors.New("proof kind not supported for transaction")
	// ErrInvalidTransition is returned when a step is taken out of order.
	ErrInvalidTransition = errors.New("invalid envelope state transition")
	// ErrSignaturesInvalidated is returned when the transaction changed after signing. The envelope is back in Built.
	ErrSignaturesInvalidated = errors.New("transaction changed after signing, signatures dropped")
)

// State is the position of an envelope in the signing pipeline
type State int

const (
	StateBuilt State = iota
	StateRollupSigned
	StateBaseChainAuthenticated
	StateSubmitterSigned
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "Built"
	case StateRollupSigned:
		return "RollupSigned"
	case StateBaseChainAuthenticated:
		return "BaseChainAuthenticated"
	case StateSubmitterSigned:
		return "SubmitterSigned"
	case StateFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

// Envelope carries one transaction through the signing pipeline. Safe for concurrent use.
type Envelope struct {
	mu    sync.Mutex
	tx    tx.Tx
	state State

	// signed is the canonical encoding the rollup signature covers.
	signed      []byte
	rollupSig   types.ZkSignature
	authorized  bool
	l1Signature *tx.Layer1Signature
	submitter   *types.ZkSignature

	// authCancel is set while Authenticate waits on a backend.
	authCancel context.CancelFunc
	canceled   bool
}

// State returns the current pipeline state.
func (e *Envelope) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tx returns the transaction the envelope currently holds. Editing it directly after
// signing invalidates the signatures on the next transition.
func (e *Envelope) Tx() tx.Tx {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tx
}

// SignedEnvelope is the immutable output of Finalize
type SignedEnvelope struct {
	Tx                 tx.Tx
	Hash               types.TxHash
	Layer1Signature    *tx.Layer1Signature
	SubmitterSignature *types.ZkSignature
}

// AuthOptions describes the base-chain context a proof is produced for
type AuthOptions struct {
	// NetworkID is the base-chain id; ChangePubKey typed data and remote wallets are bound to it.
	NetworkID    uint64
	MainContract common.Address
	// Account is the expected base-chain account; zero accepts whatever the backend controls.
	Account common.Address
	// TokenSymbol names the fee or amount token in human-readable messages.
	TokenSymbol string
}

// RunOptions configures the full pipeline
type RunOptions struct {
	// Backend is consulted when the transaction kind takes a base-chain proof. Nil skips optional auth.
	Backend auth.Backend
	Auth    AuthOptions
	// Submitter adds a submitter signature when set.
	Submitter signer.Service
}

// Service drives envelopes through Built → RollupSigned → BaseChainAuthenticated → SubmitterSigned → Finalized
type Service interface {
	// Build validates t and wraps it in a new envelope
	Build(t tx.Tx) (*Envelope, error)

	// SignRollup attaches the rollup signature over the canonical encoding
	SignRollup(ctx context.Context, env *Envelope) error

	// Authenticate obtains a base-chain proof from backend. At most one call per envelope at a time.
	Authenticate(ctx context.Context, env *Envelope, backend auth.Backend, opts AuthOptions) error

	// SignSubmitter attaches a submitter signature over the transaction hash
	SignSubmitter(ctx context.Context, env *Envelope, submitter signer.Service) error

	// Finalize freezes the envelope
	Finalize(ctx context.Context, env *Envelope) (*SignedEnvelope, error)

	// Mutate edits the transaction, drops every signature and returns the envelope to Built
	Mutate(ctx context.Context, env *Envelope, fn func(tx.Tx) error) error

	// Cancel interrupts an outstanding Authenticate call. Reports whether one was running.
	Cancel(env *Envelope) bool

	// Run executes the whole pipeline for t
	Run(ctx context.Context, t tx.Tx, opts RunOptions) (*SignedEnvelope, error)
}
