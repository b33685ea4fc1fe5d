package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const pageStyle = `body { font-family: Arial, sans-serif; margin: 0; background: #f2f4f8; color: #1f2933; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
main { background: #fff; padding: 32px; border-radius: 8px; width: 90%; max-width: 400px; box-shadow: 0 10px 30px rgba(0,0,0,0.08); }
h1 { margin-top: 0; font-size: 22px; }
input { width: 100%; box-sizing: border-box; padding: 10px; margin: 8px 0; border: 1px solid #cbd2d9; border-radius: 4px; }
button { width: 100%; padding: 12px; margin-top: 8px; border: none; border-radius: 4px; background: #2f6fed; color: #fff; font-size: 15px; cursor: pointer; }
#notice { margin-top: 12px; min-height: 20px; font-size: 14px; }
.error { color: #c81e1e; } .ok { color: #1e7c3a; }
a { color: #2f6fed; font-size: 14px; }`

const pageScript = `function notice(text, ok) {
  const el = document.getElementById('notice');
  el.textContent = text;
  el.className = ok ? 'ok' : 'error';
}
async function postJSON(url, body) {
  const response = await fetch(url, {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(body)
  });
  let data = {};
  try { data = await response.json(); } catch (e) {}
  return { ok: response.ok, data };
}`

func page(title, body, script string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>` + title + ` | Rivaq</title>
<style>` + pageStyle + `</style>
</head>
<body>
<main>
` + body + `
<div id="notice"></div>
</main>
<script>` + pageScript + "\n" + script + `</script>
</body>
</html>`
}

var loginPageHTML = page("Log in", `<h1>Log in</h1>
<form onsubmit="return login(event)">
  <input type="email" name="email" placeholder="Email" required />
  <input type="password" name="password" placeholder="Password" required />
  <button type="submit">Log in</button>
</form>
<p><a href="/forgot-password">Forgot your password?</a></p>`, `async function login(event) {
  event.preventDefault();
  const form = Object.fromEntries(new FormData(event.target).entries());
  const { ok, data } = await postJSON('/api/v1/auth/login', form);
  if (!ok) { notice(data.error || 'Login failed', false); return false; }
  localStorage.setItem('rivaq_token', data.token);
  notice('Logged in as ' + data.account.name, true);
  return false;
}`)

var forgotPasswordPageHTML = page("Forgot password", `<h1>Reset your password</h1>
<form onsubmit="return requestReset(event)">
  <input type="email" name="email" placeholder="Email" required />
  <button type="submit">Send reset link</button>
</form>
<p><a href="/login">Back to log in</a></p>`, `async function requestReset(event) {
  event.preventDefault();
  const form = Object.fromEntries(new FormData(event.target).entries());
  const { ok, data } = await postJSON('/api/v1/auth/password/forgot', form);
  notice(data.message || data.error || 'Request failed', ok);
  return false;
}`)

var resetPasswordPageHTML = page("Choose a new password", `<h1>Choose a new password</h1>
<form id="reset-form" style="display:none" onsubmit="return resetPassword(event)">
  <input type="password" name="new_password" placeholder="New password" required />
  <input type="password" name="confirm_password" placeholder="Confirm password" required />
  <button type="submit">Update password</button>
</form>
<p><a href="/login">Back to log in</a></p>`, `const token = new URLSearchParams(window.location.search).get('token') || '';
async function checkToken() {
  if (!token) { notice('This reset link is invalid or has expired.', false); return; }
  const response = await fetch('/api/v1/auth/password/reset/' + encodeURIComponent(token));
  if (!response.ok) { notice('This reset link is invalid or has expired.', false); return; }
  document.getElementById('reset-form').style.display = 'block';
}
async function resetPassword(event) {
  event.preventDefault();
  const form = Object.fromEntries(new FormData(event.target).entries());
  form.token = token;
  const { ok, data } = await postJSON('/api/v1/auth/password/reset', form);
  if (!ok) { notice(data.error || 'Reset failed', false); return false; }
  document.getElementById('reset-form').style.display = 'none';
  notice('Password updated. You can now log in.', true);
  return false;
}
checkToken();`)

func RegisterPages(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/login")
	})
	e.GET("/login", func(c echo.Context) error {
		return c.HTML(http.StatusOK, loginPageHTML)
	})
	e.GET("/forgot-password", func(c echo.Context) error {
		return c.HTML(http.StatusOK, forgotPasswordPageHTML)
	})
	// The token sits in the query string; keep it out of Referer headers.
	e.GET("/reset-password", func(c echo.Context) error {
		c.Response().Header().Set("Referrer-Policy", "no-referrer")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return c.HTML(http.StatusOK, resetPasswordPageHTML)
	})
}
