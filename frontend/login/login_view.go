package login

import (
	"fmt"
	"html"
	"strings"

	sharedhtml "gpdash/frontend/shared/html"
)

// LoginPage renders the sign-in form.
func LoginPage(errorMessage string) string {
	var b strings.Builder
	b.WriteString(`<main class="login"><h1>GP Dashboard</h1>`)
	if strings.TrimSpace(errorMessage) != "" {
		fmt.Fprintf(&b, `<p class="error">%s</p>`, html.EscapeString(errorMessage))
	}
	b.WriteString(`<form method="POST" action="/login">`)
	b.WriteString(`<label>Email or username<input type="text" name="login" autocomplete="username" autofocus required></label>`)
	b.WriteString(`<label>Password<input type="password" name="password" autocomplete="current-password" required></label>`)
	b.WriteString(`<button type="submit">Sign in</button>`)
	b.WriteString(`</form></main>`)
	return sharedhtml.RenderLayout("Sign in - GP Dashboard", b.String())
}
