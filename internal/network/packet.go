package network

// DefaultPacketBytes is the fixed length of every sensor transmission.
const DefaultPacketBytes = 50

// AckFrameBytes is the length of a MAC acknowledgment frame.
const AckFrameBytes = 5

type Packet struct {
	ID           int
	Src          Address
	Dst          Address
	Size         int
	CreationTime float64
	Payload      []byte
}

func NewPacket(id int, src, dst Address, size int, time float64) Packet {
	return Packet{
		ID:           id,
		Src:          src,
		Dst:          dst,
		Size:         size,
		CreationTime: time,
	}
}

// TxOptions mirrors the request parameters of a MAC data request.
type TxOptions struct {
	AckRequested bool
	PanID        uint16
	Handle       uint8
}
