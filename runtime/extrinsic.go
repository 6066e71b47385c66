package runtime

import (
	"crypto/ed25519"

	"golang.org/x/crypto/blake2b"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// Extrinsic is one signed call. Nonce must equal the signer's stored
// account nonce when the extrinsic is applied; the signature covers the
// blake2b-256 digest of everything but itself.
type Extrinsic struct {
	Signer    assets.AccountID
	Nonce     uint64
	Call      Call
	Signature []byte
}

func (e Extrinsic) Encode(w *codec.Writer) {
	w.PutU8(codec.FormatVersion)
	w.PutRaw(e.Signer[:])
	w.PutU64(e.Nonce)
	EncodeCall(w, e.Call)
	w.PutBytes(e.Signature)
}

func (e Extrinsic) EncodeToBytes() []byte {
	w := codec.NewWriter()
	e.Encode(w)
	return w.Bytes()
}

func DecodeExtrinsic(r *codec.Reader) Extrinsic {
	r.Version()
	var e Extrinsic
	e.Signer = r.Raw32()
	e.Nonce = r.U64()
	e.Call = DecodeCall(r)
	e.Signature = r.Bytes()
	return e
}

func DecodeExtrinsicBytes(b []byte) (Extrinsic, error) {
	r := codec.NewReader(b)
	e := DecodeExtrinsic(r)
	return e, r.Done()
}

// SigningPayload is the digest the signer signs: the extrinsic encoding
// up to but excluding the signature.
func (e Extrinsic) SigningPayload() []byte {
	w := codec.NewWriter()
	w.PutU8(codec.FormatVersion)
	w.PutRaw(e.Signer[:])
	w.PutU64(e.Nonce)
	EncodeCall(w, e.Call)
	digest := blake2b.Sum256(w.Bytes())
	return digest[:]
}

// Hash identifies the extrinsic (pool dedupe, extrinsics root leaves).
func (e Extrinsic) Hash() [32]byte {
	return blake2b.Sum256(e.EncodeToBytes())
}

// SignatureVerifier checks an extrinsic signature. It is injected into
// the executor so consensus code stays free of key-scheme choices and
// tests can use a permissive stand-in.
type SignatureVerifier interface {
	Verify(signer assets.AccountID, digest, sig []byte) bool
}

// Ed25519Verifier treats account ids as ed25519 public keys, the
// production scheme.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(signer assets.AccountID, digest, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(signer[:], digest, sig)
}

// Sign produces a complete extrinsic for the given ed25519 private key.
// The signer account is the corresponding public key.
func Sign(priv ed25519.PrivateKey, nonce uint64, call Call) Extrinsic {
	var signer assets.AccountID
	copy(signer[:], priv.Public().(ed25519.PublicKey))
	e := Extrinsic{Signer: signer, Nonce: nonce, Call: call}
	e.Signature = ed25519.Sign(priv, e.SigningPayload())
	return e
}
