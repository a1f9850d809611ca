package video

// Hardware-accelerated encoding (NVENC, Media Foundation, VideoToolbox)
// is a concrete OS API integration treated as an external collaborator:
// it exists here only as the backend contract the software fallback also
// satisfies. No platform registers a hardware factory today, so
// newHardwareBackend always falls through to software, the same "attempt
// in priority order, fall back silently" shape platform capture uses.
func newHardwareBackend(cfg EncoderConfig) (backend, error) {
	return nil, errNoHardwareBackend
}

type noHardwareErr struct{}

func (noHardwareErr) Error() string { return "no hardware video encoder backend registered" }

var errNoHardwareBackend = noHardwareErr{}
