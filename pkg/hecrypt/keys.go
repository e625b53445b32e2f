package hecrypt

import "encoding/json"

// KeyPair holds a serialized CKKS keypair. Public and Relin may travel to the
// server; Secret never leaves the client and, at rest, exists only wrapped
// under the user's master key.
type KeyPair struct {
	Public []byte `json:"public"`
	Secret []byte `json:"secret"`
	Relin  []byte `json:"relin"`
}

// Marshal serializes the keypair for envelope wrapping.
func (kp *KeyPair) Marshal() ([]byte, error) {
	return json.Marshal(kp)
}

// UnmarshalKeyPair parses a keypair previously produced by Marshal.
func UnmarshalKeyPair(data []byte) (*KeyPair, error) {
	var kp KeyPair
	if err := json.Unmarshal(data, &kp); err != nil {
		return nil, err
	}
	return &kp, nil
}

// Zero overwrites the secret key bytes. Called when a session ends; the public
// and relinearization keys are not secret and are left alone.
func (kp *KeyPair) Zero() {
	for i := range kp.Secret {
		kp.Secret[i] = 0
	}
}
