package authmaterial

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// CategoryAppStateSyncKey is the key category whose values are stored in protobuf wire format.
const CategoryAppStateSyncKey = "app-state-sync-key"

// AppStateSyncKeyData is the decoded form of an app state sync key.
type AppStateSyncKeyData struct {
	KeyData     []byte
	Fingerprint *AppStateSyncKeyFingerprint
	Timestamp   int64
}

// AppStateSyncKeyFingerprint identifies the device set a sync key was issued for.
type AppStateSyncKeyFingerprint struct {
	RawID         uint32
	CurrentIndex  uint32
	DeviceIndexes []uint32
}

var errTruncated = errors.New("authmaterial: truncated protobuf field")

// MarshalAppStateSyncKey encodes k in protobuf wire format.
func MarshalAppStateSyncKey(k *AppStateSyncKeyData) []byte {
	var b []byte
	if k.KeyData != nil {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, k.KeyData)
	}
	if k.Fingerprint != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalFingerprint(k.Fingerprint))
	}
	if k.Timestamp != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(k.Timestamp))
	}
	return b
}

func marshalFingerprint(f *AppStateSyncKeyFingerprint) []byte {
	var b []byte
	if f.RawID != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.RawID))
	}
	if f.CurrentIndex != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.CurrentIndex))
	}
	if len(f.DeviceIndexes) > 0 {
		var packed []byte
		for _, idx := range f.DeviceIndexes {
			packed = protowire.AppendVarint(packed, uint64(idx))
		}
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

// UnmarshalAppStateSyncKey decodes b. Unknown fields are skipped.
func UnmarshalAppStateSyncKey(b []byte) (*AppStateSyncKeyData, error) {
	k := &AppStateSyncKeyData{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			k.KeyData = append([]byte(nil), v...)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			fp, err := unmarshalFingerprint(v)
			if err != nil {
				return nil, fmt.Errorf("fingerprint: %w", err)
			}
			k.Fingerprint = fp
			b = b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			k.Timestamp = int64(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return k, nil
}

func unmarshalFingerprint(b []byte) (*AppStateSyncKeyFingerprint, error) {
	f := &AppStateSyncKeyFingerprint{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.RawID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.CurrentIndex = uint32(v)
			b = b[n:]
		case num == 3 && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return nil, errTruncated
				}
				f.DeviceIndexes = append(f.DeviceIndexes, uint32(v))
				packed = packed[m:]
			}
			b = b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.DeviceIndexes = append(f.DeviceIndexes, uint32(v))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return f, nil
}

// AppStateSyncKeyCodec stores *AppStateSyncKeyData in protobuf wire format.
var AppStateSyncKeyCodec = Codec{
	Encode: func(v any) ([]byte, error) {
		k, ok := v.(*AppStateSyncKeyData)
		if !ok {
			return nil, fmt.Errorf("authmaterial: %s value is %T, want *AppStateSyncKeyData", CategoryAppStateSyncKey, v)
		}
		return MarshalAppStateSyncKey(k), nil
	},
	Decode: func(b []byte) (any, error) {
		return UnmarshalAppStateSyncKey(b)
	},
}
