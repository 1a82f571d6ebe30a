package rtc

// Opus frames carrying silence or DTX are a few bytes; voiced 20 ms frames
// at typical bitrates are tens to hundreds. The mapping is a rough
// stand-in for a real input meter.
const (
	silentFrameBytes = 10
	loudFrameBytes   = 160
)

// levelFromSize maps an encoded frame size to a level in [0,1].
func levelFromSize(n int) float64 {
	if n <= silentFrameBytes {
		return 0
	}
	if n >= loudFrameBytes {
		return 1
	}
	return float64(n-silentFrameBytes) / float64(loudFrameBytes-silentFrameBytes)
}
