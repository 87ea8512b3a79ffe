package remote

import (
	"errors"
	"strings"
	"testing"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/pktline"
)

const (
	testMasterHash = "1111111111111111111111111111111111111111"
	testDevHash    = "2222222222222222222222222222222222222222"
)

func buildAdvertisement(t *testing.T, refLines []string) []byte {
	t.Helper()
	var body []byte
	body = pktline.AppendString(body, "# service=git-upload-pack\n")
	body = pktline.AppendFlush(body)
	for _, line := range refLines {
		body = pktline.AppendString(body, line)
	}
	body = pktline.AppendFlush(body)
	return body
}

func TestParseAdvertisement(t *testing.T) {
	body := buildAdvertisement(t, []string{
		testMasterHash + " refs/heads/master\x00multi_ack side-band-64k agent=git/2.39\n",
		testDevHash + " refs/heads/dev\n",
	})

	adv, err := ParseAdvertisement(body)
	if err != nil {
		t.Fatalf("ParseAdvertisement: %v", err)
	}
	if len(adv.Refs) != 2 {
		t.Fatalf("ref count = %d, want 2", len(adv.Refs))
	}

	h, ok := adv.Find("refs/heads/master")
	if !ok || h != object.Hash(testMasterHash) {
		t.Errorf("Find(master) = (%s, %v)", h, ok)
	}
	if _, ok := adv.Find("refs/heads/nope"); ok {
		t.Error("Find on an absent ref must report false")
	}

	if !adv.Capabilities.Has("side-band-64k") {
		t.Error("capability side-band-64k missing")
	}
	if !adv.Capabilities.Has("agent") {
		t.Error("key=value capability should match on key")
	}
	if adv.Capabilities.Has("thin-pack") {
		t.Error("unadvertised capability must not match")
	}
}

func TestParseAdvertisementErrors(t *testing.T) {
	t.Run("missing announcement", func(t *testing.T) {
		var body []byte
		body = pktline.AppendString(body, testMasterHash+" refs/heads/master\n")
		body = pktline.AppendFlush(body)
		if _, err := ParseAdvertisement(body); !errors.Is(err, ErrProtocol) {
			t.Errorf("error = %v, want ErrProtocol", err)
		}
	})

	t.Run("announcement without flush", func(t *testing.T) {
		var body []byte
		body = pktline.AppendString(body, "# service=git-upload-pack\n")
		body = pktline.AppendString(body, testMasterHash+" refs/heads/master\n")
		if _, err := ParseAdvertisement(body); !errors.Is(err, ErrProtocol) {
			t.Errorf("error = %v, want ErrProtocol", err)
		}
	})

	t.Run("malformed ref line", func(t *testing.T) {
		body := buildAdvertisement(t, []string{"garbage-without-space\n"})
		if _, err := ParseAdvertisement(body); !errors.Is(err, ErrProtocol) {
			t.Errorf("error = %v, want ErrProtocol", err)
		}
	})

	t.Run("bad hash", func(t *testing.T) {
		body := buildAdvertisement(t, []string{"nothex refs/heads/master\n"})
		if _, err := ParseAdvertisement(body); err == nil {
			t.Error("bad hash should fail")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := ParseAdvertisement(nil); !errors.Is(err, ErrProtocol) {
			t.Errorf("error = %v, want ErrProtocol", err)
		}
	})
}

func TestBuildUploadPackRequest(t *testing.T) {
	body := BuildUploadPackRequest(object.Hash(testMasterHash))
	want := "0032want " + testMasterHash + "\n" + "0000" + "0009done\n"
	if string(body) != want {
		t.Errorf("request body = %q, want %q", body, want)
	}
}

func TestCapabilitiesString(t *testing.T) {
	caps := ParseCapabilities("zulu alpha  mike")
	if got := caps.String(); got != "alpha mike zulu" {
		t.Errorf("String = %q, want sorted tokens", got)
	}
	if caps.Has("") {
		t.Error("empty token must not be present")
	}
	if !strings.Contains(caps.String(), "alpha") {
		t.Error("parsed token lost")
	}
}
