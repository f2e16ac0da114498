package compose

// Trim is the pair of instructions that brings independently produced
// audio and video tracks to one coherent duration before merging.
type Trim struct {
	// DurationSec is the reconciled output duration: min(video, audio)
	DurationSec float64
	// TrimVideo / TrimAudio mark which side must be cut to DurationSec.
	// At most one is set; equal durations set neither.
	TrimVideo bool
	TrimAudio bool
}

// Reconcile produces trim instructions for a video track of videoSec and
// an audio track of audioSec. The longer side is always shortened to the
// shorter one, never stretched or looped; losing trailing content is the
// accepted trade. Zero on either side yields a zero-duration output;
// composition still succeeds with a trivial file.
func Reconcile(videoSec, audioSec float64) Trim {
	if videoSec < 0 {
		videoSec = 0
	}
	if audioSec < 0 {
		audioSec = 0
	}

	switch {
	case audioSec > videoSec:
		return Trim{DurationSec: videoSec, TrimAudio: true}
	case audioSec < videoSec:
		return Trim{DurationSec: audioSec, TrimVideo: true}
	default:
		return Trim{DurationSec: audioSec}
	}
}
