package validate

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedEventFrame(t *testing.T) string {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	evt := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Now(),
		Kind:      1,
		Tags:      nostr.Tags{},
		Content:   "hello",
	}
	require.NoError(t, evt.Sign(sk))

	payload, err := evt.MarshalJSON()
	require.NoError(t, err)
	return `["EVENT","sub1",` + string(payload) + `]`
}

func TestValidate_RejectsEmptyFrame(t *testing.T) {
	result := Validate([]byte("   "))
	assert.Equal(t, OutcomeReject, result.Outcome)
}

func TestValidate_RejectsNonBracketedFrame(t *testing.T) {
	result := Validate([]byte(`{"not":"a list"}`))
	assert.Equal(t, OutcomeReject, result.Outcome)
}

func TestValidate_RejectsWrongArityEvent(t *testing.T) {
	result := Validate([]byte(`["EVENT", {}]`))
	assert.Equal(t, OutcomeReject, result.Outcome)
}

func TestValidate_RejectsBadSignature(t *testing.T) {
	frame := `["EVENT","sub1",{"id":"aa","pubkey":"bb","created_at":1,"kind":1,"tags":[],"content":"x","sig":"00"}]`
	result := Validate([]byte(frame))
	assert.Equal(t, OutcomeReject, result.Outcome)
}

func TestValidate_ForwardsVerifiedEvent(t *testing.T) {
	frame := signedEventFrame(t)
	result := Validate([]byte(frame))
	require.Equal(t, OutcomeForwardEvent, result.Outcome)
	assert.NotNil(t, result.Event)
}

func TestValidate_PassesThroughKnownNonEventTypes(t *testing.T) {
	for _, frame := range []string{
		`["EOSE","sub1"]`,
		`["NOTICE","hello"]`,
		`["OK","id1",true,""]`,
		`["CLOSED","sub1","reason"]`,
		`["AUTH","challenge"]`,
	} {
		result := Validate([]byte(frame))
		assert.Equal(t, OutcomePassThrough, result.Outcome, frame)
	}
}

func TestValidate_RejectsUnknownDiscriminator(t *testing.T) {
	result := Validate([]byte(`["BOGUS","x"]`))
	assert.Equal(t, OutcomeReject, result.Outcome)
}
