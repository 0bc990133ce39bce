package emails

import (
	"fmt"
	"strings"
	"time"
)

const brandName = "IsaHouse"

// Brand colors.
const (
	themePrimary   = "#B45309"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared HTML layout.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; }
    table { border-collapse: collapse; }
    body, td, p, a, li { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 20px 0; }
    .content-body h2 { font-size: 17px; margin: 24px 0 10px 0; }
    .content-body a { color: %s; font-weight: 600; text-decoration: none; }
    .footer-text { color: %s; font-size: 13px; line-height: 1.5; }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="width: 600px; background-color: %s; border-radius: 8px;">
          <tr>
            <td align="center" style="padding: 32px 0 24px 0; font-size: 22px; font-weight: 700; color: %s;">%s</td>
          </tr>
          <tr>
            <td class="content-body" style="padding: 0 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding: 24px 48px 32px 48px;">
              <p class="footer-text" style="margin: 0;">© %d %s</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		brandName, themeBgBody, themeTextMain, themePrimary, themeTextMuted,
		themeBgBody, themeWhite, themePrimary, brandName, contentHTML, year, brandName)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
