// Package browser opens the authorization URL in the user's default browser.
// Best-effort side effect: the canonical delivery channel is the URL itself,
// so a launch failure is advisory and the flow may keep waiting for the
// redirect.
package browser

import (
	"fmt"
	"io"

	pkgbrowser "github.com/pkg/browser"

	"github.com/wixenmail/wixen/internal/oauth"
)

func init() {
	// pkg/browser conecta stdout/stderr del proceso hijo a los nuestros;
	// algunos browsers loguean basura ahí y ensucia la salida del CLI.
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
}

// Open hands the URL to the OS default handler. It returns as soon as the
// handler was invoked; it never waits for the user. The error message
// carries the full URL so the user can open it manually.
func Open(url string) error {
	if err := pkgbrowser.OpenURL(url); err != nil {
		return fmt.Errorf("%w: open this URL manually: %s", oauth.ErrBrowserLaunchFailed, url)
	}
	return nil
}
