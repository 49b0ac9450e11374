package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

const homePage = `<!DOCTYPE html>
<html>
<head><title>filebox</title></head>
<body>
<h1>filebox</h1>
<p>Upload files and share them with a short link.</p>
<pre>
curl -F "files=@photo.jpg" -F "expiration=7d" %s/upload
</pre>
<p>Expiration: 1d, 7d, 1m or never (default).</p>
</body>
</html>
`

// HandleHome serves the landing page, or the bundled frontend when a static
// directory is configured.
func (h *Handler) HandleHome(c echo.Context) error {
	if h.cfg.StaticPath != "" {
		index := filepath.Join(h.cfg.StaticPath, "index.html")
		if _, err := os.Stat(index); err == nil {
			return c.File(index)
		}
	}

	return c.HTML(http.StatusOK, fmt.Sprintf(homePage, strings.TrimSuffix(h.cfg.BaseURL, "/")))
}
