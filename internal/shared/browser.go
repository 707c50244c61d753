package shared

import (
	"fmt"

	"github.com/pkg/browser"
)

var openURL = browser.OpenURL

// OpenBrowser opens the default system browser to the specified URL.
//
// Track previews are played by the browser rather than an embedded player.
func OpenBrowser(url string) error {
	if url == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidArgument)
	}

	if err := openURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
