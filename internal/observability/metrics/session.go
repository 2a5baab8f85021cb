package metrics

import (
	"time"

	obserrors "github.com/target/eventdesk/internal/observability/errors"
	"github.com/target/eventdesk/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// EdgeDecision captures one edge guard verdict.
type EdgeDecision struct {
	Class  string
	Action string // "pass" or "redirect"
	Token  bool
}

// EmitEdgeDecision counts edge guard verdicts by route class and action.
func EmitEdgeDecision(sink statsd.Sink, in EdgeDecision) {
	if sink == nil {
		return
	}
	token := "absent"
	if in.Token {
		token = "present"
	}
	sink.Count("edge.decision", 1, map[string]string{
		"class":  in.Class,
		"action": in.Action,
		"token":  token,
	})
}

// SessionTransition captures a session lifecycle operation and its outcome.
type SessionTransition struct {
	Operation string // check_auth, sign_in, sign_out
	Result    string
	To        string
	Duration  time.Duration
	Err       error
}

// EmitSessionTransition emits standardised session lifecycle metrics.
func EmitSessionTransition(sink statsd.Sink, in SessionTransition) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
		"to":        in.To,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// EmitGateRedirect counts countdown-driven sign-in redirects.
func EmitGateRedirect(sink statsd.Sink, class string) {
	if sink == nil {
		return
	}
	sink.Count("gate.redirect", 1, map[string]string{"class": class})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
