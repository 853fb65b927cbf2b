package traffic

// Observer receives counters from the send and confirm paths.
type Observer interface {
	PacketSubmitted(nodeID, wireBytes int)
	SubmitFailed(nodeID int)
	PacketConfirmed(nodeID int, remaining, latency float64)
	NodeExhausted(nodeID int, lifetime float64)
}

type nopObserver struct{}

func (nopObserver) PacketSubmitted(int, int) {}
func (nopObserver) SubmitFailed(int) {}
func (nopObserver) PacketConfirmed(int, float64, float64) {}
func (nopObserver) NodeExhausted(int, float64) {}
