package remote

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/pktline"
)

// ErrProtocol reports a smart-HTTP exchange that deviated from the
// expected shape: wrong framing, missing service announcement, missing
// NAK, missing ref.
var ErrProtocol = errors.New("protocol error")

const serviceAnnouncement = "# service=git-upload-pack"

// AdvertisedRef is one ref line from the discovery response.
type AdvertisedRef struct {
	Hash object.Hash
	Name string
}

// Advertisement is the parsed capability discovery response.
type Advertisement struct {
	Refs         []AdvertisedRef
	Capabilities Capabilities
}

// Find returns the hash advertised for the given fully qualified ref
// name.
func (a *Advertisement) Find(name string) (object.Hash, bool) {
	for _, ref := range a.Refs {
		if ref.Name == name {
			return ref.Hash, true
		}
	}
	return "", false
}

// ParseAdvertisement frames and validates an info/refs response body.
// The first frame must be the service announcement and the second the
// flush that closes it; each following data frame is
// "<hash> SP <refname>", where the first ref line carries a
// NUL-separated capability list.
func ParseAdvertisement(body []byte) (*Advertisement, error) {
	frames, err := pktline.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("refs discovery: %w", err)
	}
	if len(frames) < 2 {
		return nil, fmt.Errorf("refs discovery: %d frames, expected announcement and flush: %w", len(frames), ErrProtocol)
	}
	if frames[0].Flush || string(frames[0].Text()) != serviceAnnouncement {
		return nil, fmt.Errorf("refs discovery: missing service announcement: %w", ErrProtocol)
	}
	if !frames[1].Flush {
		return nil, fmt.Errorf("refs discovery: announcement not followed by flush: %w", ErrProtocol)
	}

	adv := &Advertisement{}
	for _, frame := range frames[2:] {
		if frame.Flush {
			break
		}
		line := frame.Text()

		// The first ref line ends with "NUL capability-list".
		if nulIdx := bytes.IndexByte(line, 0); nulIdx >= 0 {
			adv.Capabilities = ParseCapabilities(string(line[nulIdx+1:]))
			line = line[:nulIdx]
		}

		hashStr, name, ok := strings.Cut(string(line), " ")
		if !ok {
			return nil, fmt.Errorf("refs discovery: malformed ref line %q: %w", line, ErrProtocol)
		}
		h, err := object.ParseHash(hashStr)
		if err != nil {
			return nil, fmt.Errorf("refs discovery: ref %q: %w", name, err)
		}
		adv.Refs = append(adv.Refs, AdvertisedRef{Hash: h, Name: name})
	}
	return adv, nil
}

// BuildUploadPackRequest constructs the pkt-line body of a fetch:
// one want line, a flush, and done.
func BuildUploadPackRequest(want object.Hash) []byte {
	var body []byte
	body = pktline.AppendString(body, fmt.Sprintf("want %s\n", want))
	body = pktline.AppendFlush(body)
	body = pktline.AppendString(body, "done\n")
	return body
}

// Capabilities is the set of capability tokens a server advertised.
type Capabilities struct {
	set map[string]struct{}
}

// ParseCapabilities parses a space-separated capability string.
func ParseCapabilities(raw string) Capabilities {
	caps := Capabilities{set: make(map[string]struct{})}
	for _, token := range strings.Fields(raw) {
		caps.set[token] = struct{}{}
	}
	return caps
}

// Has returns true if the capability is present. Tokens of the form
// key=value match on the key.
func (c Capabilities) Has(name string) bool {
	if _, ok := c.set[name]; ok {
		return true
	}
	for token := range c.set {
		if key, _, ok := strings.Cut(token, "="); ok && key == name {
			return true
		}
	}
	return false
}

// String returns a sorted space-separated capability string.
func (c Capabilities) String() string {
	names := make([]string, 0, len(c.set))
	for k := range c.set {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}
