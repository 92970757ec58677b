package payfast

import "time"

// Gateway calls reported to an Observer.
const (
	CallResolveHosts = "resolve_hosts"
	CallValidate     = "validate"
)

// Observer receives ITN processing measurements.
type Observer interface {
	ObserveOutcome(outcome string)
	ObserveGatewayCall(call string, err error, d time.Duration)
}

type NopObserver struct{}

func (NopObserver) ObserveOutcome(string)                            {}
func (NopObserver) ObserveGatewayCall(string, error, time.Duration) {}
