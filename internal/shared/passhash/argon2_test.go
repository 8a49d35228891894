package passhash

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("pw123456")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(h, "$argon2id$") {
		t.Fatalf("not PHC formatted: %q", h)
	}
	ok, err := Verify(h, "pw123456")
	if err != nil || !ok {
		t.Fatalf("verify failed: %v", err)
	}
	ok, err = Verify(h, "wrong-password")
	if err != nil || ok {
		t.Fatalf("expected mismatch")
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"plainhash",
		"$argon2id$v=19$m=65536,t=3,p=2$notbase64!!$x",
		"$bcrypt$v=19$m=65536,t=3,p=2$AAAA$BBBB",
		"$argon2id$v=19$bogus$AAAA$BBBB",
	} {
		if _, err := Verify(bad, "pw"); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
