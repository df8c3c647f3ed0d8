// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wirecodec

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
	modeErr error
	once    sync.Once
)

func modes() (cbor.EncMode, cbor.DecMode) {
	once.Do(func() {
		encOpts := cbor.CanonicalEncOptions()
		encMode, modeErr = encOpts.EncMode()
		if modeErr != nil {
			return
		}
		decOpts := cbor.DecOptions{
			DupMapKey: cbor.DupMapKeyEnforcedAPF,
			IndefLength: cbor.IndefLengthForbidden,
		}
		decMode, modeErr = decOpts.DecMode()
	})
	return encMode, decMode
}

// Marshal encodes v to its canonical CBOR representation.
func Marshal(v interface{}) ([]byte, error) {
	enc, _ := modes()
	if modeErr != nil {
		return nil, modeErr
	}
	return enc.Marshal(v)
}

// Unmarshal decodes data into v, first rejecting data unless it is
// exactly the unique canonical encoding of one CBOR value.
func Unmarshal(data []byte, v interface{}) error {
	_, dec := modes()
	if modeErr != nil {
		return modeErr
	}
	if err := ValidateCanonical(data); err != nil {
		return err
	}
	return dec.Unmarshal(data, v)
}
