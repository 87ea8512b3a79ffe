package remote

import (
	"context"
	"fmt"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/pktline"
)

// DefaultBranch is the branch fetched when the caller does not name one.
const DefaultBranch = "master"

// FetchResult reports a completed fetch.
type FetchResult struct {
	Branch  string      // short branch name that was fetched
	Commit  object.Hash // tip commit of that branch
	Refs    []AdvertisedRef
	Objects int // objects ingested from the pack, deltas included
}

// Fetch runs the single-want/done exchange for one branch and ingests
// the resulting pack into the store:
//
//  1. Capability discovery via info/refs.
//  2. Branch selection from the advertised refs.
//  3. want/flush/done request to git-upload-pack.
//  4. NAK, then the pack stream, raw or side-band multiplexed.
//  5. Pack ingest with delta resolution, written through the store.
//
// Ref and HEAD updates are the caller's job; the store has everything it
// needs when Fetch returns.
func Fetch(ctx context.Context, c *Client, store *object.Store, branch string) (*FetchResult, error) {
	if branch == "" {
		branch = DefaultBranch
	}

	discovery, err := c.InfoRefs(ctx)
	if err != nil {
		return nil, err
	}
	adv, err := ParseAdvertisement(discovery)
	if err != nil {
		return nil, err
	}

	refName := "refs/heads/" + branch
	want, ok := adv.Find(refName)
	if !ok {
		return nil, fmt.Errorf("remote does not advertise %s: %w", refName, ErrProtocol)
	}

	response, err := c.UploadPack(ctx, BuildUploadPackRequest(want))
	if err != nil {
		return nil, err
	}
	pack, err := extractPack(response)
	if err != nil {
		return nil, err
	}

	summary, err := store.IngestPack(pack)
	if err != nil {
		return nil, err
	}
	if !store.Has(want) {
		return nil, fmt.Errorf("fetched pack does not contain commit %s: %w", want, ErrProtocol)
	}

	return &FetchResult{
		Branch:  branch,
		Commit:  want,
		Refs:    adv.Refs,
		Objects: summary.Objects,
	}, nil
}

// extractPack pulls the packfile out of an upload-pack response body:
// a NAK frame, then either a single verbatim pack frame or a run of
// side-band frames carrying the pack on channel 1.
func extractPack(body []byte) ([]byte, error) {
	frames, err := pktline.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("upload-pack response: %w", err)
	}
	if len(frames) == 0 || frames[0].Flush || string(frames[0].Text()) != "NAK" {
		return nil, fmt.Errorf("upload-pack response: missing NAK: %w", ErrProtocol)
	}
	rest := frames[1:]
	if len(rest) == 0 {
		return nil, fmt.Errorf("upload-pack response: missing pack data: %w", ErrProtocol)
	}

	if isSidebandFrame(rest[0]) {
		return DemuxSideband(rest, nil)
	}
	if rest[0].Flush || len(rest[0].Data) == 0 {
		return nil, fmt.Errorf("upload-pack response: missing pack data: %w", ErrProtocol)
	}
	return rest[0].Data, nil
}
