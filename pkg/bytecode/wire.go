package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so the same unit always encodes to the
// same bytes, which keeps stored units content-addressable.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalUnit serializes a unit (including its nested units) to CBOR bytes.
// Units whose constants contain closures cannot be serialized: closures
// carry live capture cells that only exist inside a running VM.
func MarshalUnit(u *Unit) ([]byte, error) {
	if err := checkSerializable(u); err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(u)
}

// UnmarshalUnit deserializes a unit from CBOR bytes.
func UnmarshalUnit(data []byte) (*Unit, error) {
	var u Unit
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal unit: %w", err)
	}
	return &u, nil
}

func checkSerializable(u *Unit) error {
	for i, in := range u.Code {
		switch in.Const.Type {
		case TypeClosure:
			return fmt.Errorf("bytecode: unit %s instruction %d: closure constants are not serializable", u.Name, i)
		case TypeUnit:
			if err := checkSerializable(in.Const.UnitVal); err != nil {
				return err
			}
		}
	}
	return nil
}
