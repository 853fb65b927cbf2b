package network

import (
	"errors"
	"fmt"
)

// MaxNodes is the largest identity the two-digit address suffix can carry.
const MaxNodes = 99

// ErrAddressSpace is returned for identities outside 1..MaxNodes.
var ErrAddressSpace = errors.New("node identity outside address space")

// Address is a 16-bit short address written as "00:NN".
type Address string

// ServerAddress is the coordinator's fixed address.
const ServerAddress Address = "00:00"

func AddressFor(id int) (Address, error) {
	if id < 1 || id > MaxNodes {
		return "", fmt.Errorf("node %d: %w (1..%d)", id, ErrAddressSpace, MaxNodes)
	}
	return Address(fmt.Sprintf("00:%02d", id)), nil
}

func (a Address) String() string {
	return string(a)
}
