package playback

import "slices"

// DefaultPreference is the extension order used when none is configured.
var DefaultPreference = []string{"flv", "mp3", "ogg", "flac", "wav"}

// Select returns the first backend and extension, in preference order, such
// that the extension is available and the backend is supported and can play
// it. ok is false when nothing fits.
func Select(backends []Backend, available []string, preference []string) (b Backend, ext string, ok bool) {
	if len(preference) == 0 {
		preference = DefaultPreference
	}
	for _, ext := range preference {
		if !slices.Contains(available, ext) {
			continue
		}
		for _, b := range backends {
			if b != nil && b.IsSupported() && b.CanPlayType(ext) {
				return b, ext, true
			}
		}
	}
	return nil, "", false
}
