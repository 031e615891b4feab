package lib

import (
	"fmt"
	"math"
)

// ErrorI is the interface implemented by every error this module returns, carrying enough structure
// for a caller to distinguish the three §7 error kinds without string-matching a message
type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns the module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code, and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s\n", p.EModule, p.ECode, p.Msg)
}

const (
	NoCode ErrorCode = math.MaxUint32

	// CoreModule is the event-driven protocol engine (C1-C8 of the design)
	CoreModule ErrorModule = "core"

	// Core Module Error Codes - category (1): invariant violations, fatal
	CodeUnresolvedQCRef      ErrorCode = 1 // a delivered block's qc references a block not in the store
	CodeSafetyViolation      ErrorCode = 2 // check_commit found a non-b_exec, non-committed fork tip
	CodeNonMonotonicVote     ErrorCode = 3 // on_propose building a block whose height is not strictly greater than vheight
	CodeEmptyParents         ErrorCode = 4 // on_propose called with no parents
	CodeUndeliveredParent    ErrorCode = 5 // on_deliver_blk called before every parent was delivered
	CodeMissingGenesis       ErrorCode = 6 // the store has no genesis block configured

	// Core Module Error Codes - category (2): protocol-level rejections, dropped + logged WARN
	CodeAlreadyDelivered  ErrorCode = 20 // re-delivery of a block
	CodeDuplicateVoter    ErrorCode = 21 // duplicate vote from the same replica
	CodeDuplicateBlamer   ErrorCode = 22 // duplicate blame from the same replica
	CodeDuplicateEcho     ErrorCode = 23 // duplicate echo from the same replica
	CodeDuplicateAck      ErrorCode = 24 // duplicate ack from the same replica
	CodeDuplicatePreVote  ErrorCode = 25 // duplicate pre-commit from the same replica
	CodeQuorumAlreadyMet  ErrorCode = 26 // vote/ack/echo/pre-commit arrived after quorum was already closed
	CodeInViewTransition  ErrorCode = 27 // message rejected because the replica is mid view-change
	CodeUnknownBlock      ErrorCode = 28 // message referenced a block hash not in the store
	CodeOpinionRefused    ErrorCode = 29 // the safety rule refused to vote for a proposal
	CodeVotingDisabled    ErrorCode = 30 // set_vote_disabled(true) is in effect

	// Core Module Error Codes - category (3): verification failures, dropped at the verifier
	CodeBadSignature    ErrorCode = 50 // a partial/quorum certificate's signature did not verify
	CodeObjHashMismatch ErrorCode = 51 // a certificate's object hash did not match H(kind||payload)
	CodeMalformedMsg    ErrorCode = 52 // a message failed to parse

	// StoreModule is the content-addressed block store (C1)
	StoreModule ErrorModule = "store"

	CodeBlockNotFound  ErrorCode = 1
	CodeStillReferenced ErrorCode = 2 // try_release called on a block still reachable from hqc/b_exec/tails/aggregators
	CodePersistFailure ErrorCode = 3

	// CertModule is the certificate aggregator and signature wrapper (C2)
	CertModule ErrorModule = "cert"

	CodeEmptyQuorumCertificate ErrorCode = 1
	CodeInvalidPartialCert     ErrorCode = 2
	CodeNotEnoughSigners       ErrorCode = 3
	CodeUnknownSigner          ErrorCode = 4
	CodeAggregateFailure       ErrorCode = 5

	// WireModule is the bespoke binary codec (§6)
	WireModule ErrorModule = "wire"

	CodeShortBuffer    ErrorCode = 1
	CodeInvalidVarint  ErrorCode = 2
	CodeTrailingBytes  ErrorCode = 3
	CodeInvalidOpcode  ErrorCode = 4

	// ConfigModule validates replica configuration at construction time
	ConfigModule ErrorModule = "config"

	CodeInvalidNReplicas ErrorCode = 1
	CodeMissingValidator ErrorCode = 2
)

// Category (1): fatal invariant violations

func ErrUnresolvedQCRef(hash string) ErrorI {
	return NewError(CodeUnresolvedQCRef, CoreModule, fmt.Sprintf("qc_ref block %s not in store", hash))
}
func ErrSafetyViolation(hash string) ErrorI {
	return NewError(CodeSafetyViolation, CoreModule, fmt.Sprintf("check_commit: ancestor %s is neither b_exec nor committed", hash))
}
func ErrNonMonotonicVote(height, vheight uint64) ErrorI {
	return NewError(CodeNonMonotonicVote, CoreModule, fmt.Sprintf("propose height %d is not > vheight %d", height, vheight))
}
func ErrEmptyParents() ErrorI {
	return NewError(CodeEmptyParents, CoreModule, "on_propose called with no parents")
}
func ErrUndeliveredParent(hash string) ErrorI {
	return NewError(CodeUndeliveredParent, CoreModule, fmt.Sprintf("parent %s not yet delivered", hash))
}
func ErrMissingGenesis() ErrorI {
	return NewError(CodeMissingGenesis, CoreModule, "no genesis block configured")
}

// Category (2): dropped protocol-level rejections

func ErrAlreadyDelivered(hash string) ErrorI {
	return NewError(CodeAlreadyDelivered, CoreModule, fmt.Sprintf("block %s already delivered", hash))
}
func ErrDuplicateVoter(id uint16) ErrorI {
	return NewError(CodeDuplicateVoter, CoreModule, fmt.Sprintf("replica %d already voted", id))
}
func ErrDuplicateBlamer(id uint16) ErrorI {
	return NewError(CodeDuplicateBlamer, CoreModule, fmt.Sprintf("replica %d already blamed", id))
}
func ErrDuplicateEcho(id uint16) ErrorI {
	return NewError(CodeDuplicateEcho, CoreModule, fmt.Sprintf("replica %d already echoed", id))
}
func ErrDuplicateAck(id uint16) ErrorI {
	return NewError(CodeDuplicateAck, CoreModule, fmt.Sprintf("replica %d already acked", id))
}
func ErrDuplicatePreVote(id uint16) ErrorI {
	return NewError(CodeDuplicatePreVote, CoreModule, fmt.Sprintf("replica %d already pre-committed", id))
}
func ErrQuorumAlreadyMet() ErrorI {
	return NewError(CodeQuorumAlreadyMet, CoreModule, "quorum already closed, message ignored")
}
func ErrInViewTransition() ErrorI {
	return NewError(CodeInViewTransition, CoreModule, "replica is mid view-change")
}
func ErrUnknownBlock(hash string) ErrorI {
	return NewError(CodeUnknownBlock, CoreModule, fmt.Sprintf("block %s not found", hash))
}
func ErrOpinionRefused(hash string) ErrorI {
	return NewError(CodeOpinionRefused, CoreModule, fmt.Sprintf("safety rule refused to vote for %s", hash))
}
func ErrVotingDisabled() ErrorI {
	return NewError(CodeVotingDisabled, CoreModule, "voting is disabled on this replica")
}

// Category (3): verifier-dropped messages

func ErrBadSignature() ErrorI {
	return NewError(CodeBadSignature, CoreModule, "signature failed to verify")
}
func ErrObjHashMismatch() ErrorI {
	return NewError(CodeObjHashMismatch, CoreModule, "object hash does not match H(kind||payload)")
}
func ErrMalformedMsg(reason string) ErrorI {
	return NewError(CodeMalformedMsg, CoreModule, fmt.Sprintf("malformed message: %s", reason))
}

// Store errors

func ErrBlockNotFound(hash string) ErrorI {
	return NewError(CodeBlockNotFound, StoreModule, fmt.Sprintf("block %s not found", hash))
}
func ErrStillReferenced(hash string) ErrorI {
	return NewError(CodeStillReferenced, StoreModule, fmt.Sprintf("block %s still referenced, refusing release", hash))
}
func ErrPersistFailure(reason string) ErrorI {
	return NewError(CodePersistFailure, StoreModule, reason)
}

// Certificate errors

func ErrEmptyQuorumCertificate() ErrorI {
	return NewError(CodeEmptyQuorumCertificate, CertModule, "quorum certificate has no signers")
}
func ErrInvalidPartialCert() ErrorI {
	return NewError(CodeInvalidPartialCert, CertModule, "partial certificate failed to verify")
}
func ErrNotEnoughSigners(got, want int) ErrorI {
	return NewError(CodeNotEnoughSigners, CertModule, fmt.Sprintf("got %d signers, need %d", got, want))
}
func ErrUnknownSigner(id uint16) ErrorI {
	return NewError(CodeUnknownSigner, CertModule, fmt.Sprintf("replica %d not in validator set", id))
}
func ErrAggregateFailure(reason string) ErrorI {
	return NewError(CodeAggregateFailure, CertModule, reason)
}

// Wire errors

func ErrShortBuffer() ErrorI {
	return NewError(CodeShortBuffer, WireModule, "unexpected end of buffer")
}
func ErrInvalidVarint() ErrorI {
	return NewError(CodeInvalidVarint, WireModule, "invalid varint encoding")
}
func ErrTrailingBytes() ErrorI {
	return NewError(CodeTrailingBytes, WireModule, "trailing bytes after decode")
}
func ErrInvalidOpcode(op byte) ErrorI {
	return NewError(CodeInvalidOpcode, WireModule, fmt.Sprintf("invalid opcode 0x%02x", op))
}

// Config errors

func ErrInvalidNReplicas() ErrorI {
	return NewError(CodeInvalidNReplicas, ConfigModule, "nReplicas must be 3*nFaulty+1")
}
func ErrMissingValidator(id uint16) ErrorI {
	return NewError(CodeMissingValidator, ConfigModule, fmt.Sprintf("no public key configured for replica %d", id))
}
