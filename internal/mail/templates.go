package mail

import (
	"fmt"
	"net/url"
	"strings"
)

func link(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func VerificationEmail(to, token, baseURL string) Message {
	href := link(baseURL, "/verify-email", token)
	return Message{
		To:      to,
		Subject: "Verify your email address",
		HTML: fmt.Sprintf(`<h1>Verify your email address</h1>
<p>Click the link below to verify your email address</p>
<a href="%s">Verify email</a>`, href),
	}
}

func PasswordResetEmail(to, token, baseURL string) Message {
	href := link(baseURL, "/reset-password", token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		HTML: fmt.Sprintf(`<h1>You have requested to reset your password</h1>
<p>Click the link below to reset your password</p>
<a href="%s">Reset password</a>`, href),
	}
}
