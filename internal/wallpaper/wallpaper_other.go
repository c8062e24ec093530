//go:build !darwin && !windows && !linux

package wallpaper

type otherBackend struct{}

func newBackend(string) Backend {
	return &otherBackend{}
}

func (b *otherBackend) Name() string { return "unsupported" }

func (b *otherBackend) Apply(string, Flags) error {
	return ErrUnsupportedPlatform
}

func (b *otherBackend) Current() (string, error) {
	return "", ErrUnsupportedPlatform
}
