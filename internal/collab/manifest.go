package collab

import "github.com/fxamacker/cbor/v2"

// EncodeManifest serializes a Manifest with CBOR. The manifest's
// bit-exact wire format is left to an external collaborator (§6.2); CBOR
// is used here only so the core's own tests can round-trip a Manifest
// without inventing a bespoke format of their own.
func EncodeManifest(m Manifest) ([]byte, error) {
	return cbor.Marshal(m)
}

// DecodeManifest is the inverse of EncodeManifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := cbor.Unmarshal(data, &m)
	return m, err
}
