package service

// Recorder receives business events for metrics
type Recorder interface {
	SignInAttempt(outcome string)
	KeyCreated()
	KeyRevoked()
}

// Sign-in outcomes reported to the Recorder
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeError    = "error"
	OutcomeDemo     = "demo"
	OutcomeExternal = "external"
)

type nopRecorder struct{}

func (nopRecorder) SignInAttempt(string) {}
func (nopRecorder) KeyCreated()          {}
func (nopRecorder) KeyRevoked()          {}
