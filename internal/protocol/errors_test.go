package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProto,
		ErrBadRequest,
		ErrUnknownOp,
		ErrRejected,
		ErrRateLimit,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"CMD","protocol_version":"1.0","op":"action"}`))
	if err != nil || m.Type != TypeCmd || m.ProtocolVersion != Version {
		t.Fatalf("decode: %+v err=%v", m, err)
	}
	if _, err := DecodeBase([]byte(`not json`)); err == nil {
		t.Fatalf("garbage decoded")
	}
}
