package book

import (
	"context"
	"errors"
	"net"
	"strings"
)

// OutcomeKind classifies what happened to a single provider call.
type OutcomeKind string

const (
	OutcomeOK        OutcomeKind = "ok"
	OutcomeEmpty     OutcomeKind = "empty"
	OutcomeTimeout   OutcomeKind = "timeout"
	OutcomeException OutcomeKind = "exception"
	OutcomeMismatch  OutcomeKind = "mismatch"
)

// Outcome is the per-provider status reported alongside every resolution.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func (o Outcome) String() string {
	if o.Kind == OutcomeException && o.Reason != "" {
		return string(o.Kind) + ":" + o.Reason
	}
	return string(o.Kind)
}

// MarshalText renders the outcome in its string form so outcome maps encode
// as {"Open Library": "timeout"}.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the string form produced by MarshalText.
func (o *Outcome) UnmarshalText(text []byte) error {
	kind, reason, _ := strings.Cut(string(text), ":")
	o.Kind = OutcomeKind(kind)
	o.Reason = reason
	return nil
}

// Err maps the outcome to one of the package sentinel errors. OK yields nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeOK:
		return nil
	case OutcomeEmpty:
		return ErrProviderEmpty
	case OutcomeTimeout:
		return ErrProviderTimeout
	case OutcomeMismatch:
		return ErrEditionMismatch
	default:
		return errors.New(o.String())
	}
}

// Usable reports whether the outcome carried a record.
func (o Outcome) Usable() bool {
	return o.Kind == OutcomeOK
}

// ProviderResult pairs a provider's record with the outcome of the call.
type ProviderResult struct {
	Source  string
	Record  *Record
	Outcome Outcome
}

// OutcomeOf classifies the return values of a provider call.
func OutcomeOf(found bool, err error) Outcome {
	switch {
	case err == nil && found:
		return Outcome{Kind: OutcomeOK}
	case err == nil:
		return Outcome{Kind: OutcomeEmpty}
	case isTimeout(err):
		return Outcome{Kind: OutcomeTimeout}
	default:
		return Outcome{Kind: OutcomeException, Reason: err.Error()}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrProviderTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Outcomes collects the outcome of each result keyed by provider name.
func Outcomes(results []ProviderResult) map[string]Outcome {
	out := make(map[string]Outcome, len(results))
	for _, r := range results {
		out[r.Source] = r.Outcome
	}
	return out
}
