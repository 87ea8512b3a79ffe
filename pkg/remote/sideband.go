package remote

import (
	"fmt"

	"github.com/grit-scm/grit/pkg/pktline"
)

// Sideband channel identifiers. Inside an upload-pack response that was
// negotiated with side-band, each data frame's first byte names the
// channel the rest of the payload belongs to.
const (
	SidebandData     byte = 0x01
	SidebandProgress byte = 0x02
	SidebandError    byte = 0x03
)

// isSidebandFrame reports whether a frame looks like a side-band packet
// rather than raw pack data.
func isSidebandFrame(f pktline.Frame) bool {
	if f.Flush || len(f.Data) == 0 {
		return false
	}
	switch f.Data[0] {
	case SidebandData, SidebandProgress, SidebandError:
		return true
	}
	return false
}

// DemuxSideband reassembles the pack stream from band-1 payloads across
// the given frames. Progress messages go to onProgress when non-nil; a
// band-3 frame aborts with the server's message.
func DemuxSideband(frames []pktline.Frame, onProgress func(string)) ([]byte, error) {
	var pack []byte
	for _, frame := range frames {
		if frame.Flush || len(frame.Data) == 0 {
			continue
		}
		channel, payload := frame.Data[0], frame.Data[1:]
		switch channel {
		case SidebandData:
			pack = append(pack, payload...)
		case SidebandProgress:
			if onProgress != nil {
				onProgress(string(payload))
			}
		case SidebandError:
			return nil, fmt.Errorf("remote error: %s: %w", string(payload), ErrProtocol)
		default:
			return nil, fmt.Errorf("unknown side-band channel %d: %w", channel, ErrProtocol)
		}
	}
	return pack, nil
}
