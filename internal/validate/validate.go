// Package validate implements the frame validation pipeline: trimming and
// shape checks on a raw upstream text frame, parsing its JSON-list
// structure, and — for EVENT frames — delegating cryptographic signature
// verification to github.com/nbd-wtf/go-nostr, the ecosystem library this
// proxy treats as its external "parse/verify" collaborator rather than
// reimplementing schnorr/secp256k1 verification by hand.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// Outcome is the pipeline's verdict on a raw frame.
type Outcome int

const (
	// OutcomeReject means the frame failed a shape, arity, or signature
	// check and must not be forwarded.
	OutcomeReject Outcome = iota
	// OutcomeForwardEvent means the frame is a signature-verified EVENT
	// that has passed every check short of dedup/media filtering.
	OutcomeForwardEvent
	// OutcomePassThrough means the frame is a recognized non-EVENT relay
	// message (OK, EOSE, NOTICE, CLOSED, AUTH) and is forwarded unchanged
	// without further inspection.
	OutcomePassThrough
)

// knownDiscriminators are the non-EVENT upstream-origin message types this
// proxy recognizes as valid and forwards unchanged.
var knownDiscriminators = map[string]bool{
	"OK":     true,
	"EOSE":   true,
	"NOTICE": true,
	"CLOSED": true,
	"AUTH":   true,
}

// Result carries the pipeline's verdict plus, for an EVENT frame, the
// parsed event (used downstream for dedup keying and media-URL
// extraction).
type Result struct {
	Outcome Outcome
	Event   *nostr.Event
	Reason  string
}

// Validate runs the frame through the full pipeline:
//  1. trim surrounding whitespace, reject empty input
//  2. confirm the frame is bracket-delimited (a JSON array)
//  3. decode the JSON list
//  4. read the discriminator (list[0])
//  5. for EVENT: check arity (== 3), construct the event, verify its
//     signature
//  6. for a recognized non-EVENT discriminator: pass through unchanged
//  7. anything else: reject
//
// Dedup and media-size filtering are applied by the caller after Validate
// returns OutcomeForwardEvent; they are not part of this pipeline because
// they require state (the dedup cache, an HTTP client) this package does
// not own.
func Validate(raw []byte) Result {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return Result{Outcome: OutcomeReject, Reason: "empty frame"}
	}
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return Result{Outcome: OutcomeReject, Reason: "frame is not a JSON list"}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elements); err != nil {
		return Result{Outcome: OutcomeReject, Reason: fmt.Sprintf("invalid JSON list: %v", err)}
	}
	if len(elements) == 0 {
		return Result{Outcome: OutcomeReject, Reason: "empty JSON list"}
	}

	var discriminator string
	if err := json.Unmarshal(elements[0], &discriminator); err != nil {
		return Result{Outcome: OutcomeReject, Reason: "missing or non-string discriminator"}
	}

	if discriminator == "EVENT" {
		return validateEvent(elements)
	}

	if knownDiscriminators[discriminator] {
		return Result{Outcome: OutcomePassThrough}
	}

	return Result{Outcome: OutcomeReject, Reason: fmt.Sprintf("unrecognized discriminator %q", discriminator)}
}

func validateEvent(elements []json.RawMessage) Result {
	if len(elements) != 3 {
		return Result{Outcome: OutcomeReject, Reason: fmt.Sprintf("EVENT frame must have arity 3, got %d", len(elements))}
	}

	var evt nostr.Event
	if err := json.Unmarshal(elements[2], &evt); err != nil {
		return Result{Outcome: OutcomeReject, Reason: fmt.Sprintf("malformed event object: %v", err)}
	}

	ok, err := evt.CheckSignature()
	if err != nil || !ok {
		return Result{Outcome: OutcomeReject, Reason: "signature verification failed"}
	}

	return Result{Outcome: OutcomeForwardEvent, Event: &evt}
}
