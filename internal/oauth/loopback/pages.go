package loopback

import (
	"fmt"
	"html"
	"net/http"
)

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s — Wixen Mail</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
         display: flex; justify-content: center; align-items: center;
         min-height: 100vh; margin: 0; background: #f3f4f6; }
  .card { text-align: center; background: white; padding: 2.5rem;
          border-radius: 12px; box-shadow: 0 10px 25px rgba(0,0,0,0.08);
          max-width: 440px; }
  h1 { font-size: 1.25rem; color: #111827; }
  p  { color: #6b7280; }
  .ok   { color: #10b981; font-size: 2.5rem; }
  .fail { color: #ef4444; font-size: 2.5rem; }
</style>
</head>
<body><div class="card">%s</div></body>
</html>`

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, pageShell, html.EscapeString(title), body)
}

func writeSuccessPage(w http.ResponseWriter) {
	writePage(w, "Authorization successful",
		`<div class="ok">✓</div><h1>Authorization successful</h1>`+
			`<p>Wixen Mail is now connected to your account. You may close this tab.</p>`)
}

func writeMismatchPage(w http.ResponseWriter) {
	writePage(w, "State mismatch",
		`<div class="fail">✗</div><h1>State mismatch</h1>`+
			`<p>This redirect does not belong to the current sign-in attempt. `+
			`Please return to Wixen Mail and try again.</p>`)
}

// writeErrorPage muestra el error del provider. code y description vienen
// del query string: siempre escapados antes de tocar el HTML.
func writeErrorPage(w http.ResponseWriter, code, description string) {
	body := `<div class="fail">✗</div><h1>Authorization failed</h1>` +
		`<p>The provider reported: <strong>` + html.EscapeString(code) + `</strong></p>`
	if description != "" {
		body += `<p>` + html.EscapeString(description) + `</p>`
	}
	writePage(w, "Authorization failed", body)
}
