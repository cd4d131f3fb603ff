// Package fetch loads assembler source texts. Diagnostic listings are
// frequently published as HTML pages wrapping the source in <PRE>, so the
// loader can strip the container and decode the basic entities.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Loader yields the raw text behind one URL.
type Loader interface {
	Load(url string) (string, error)
}

// HTTPLoader fetches http(s) URLs and falls back to local file reads for
// bare paths.
type HTTPLoader struct {
	// Client is used for http(s) URLs. If nil, a client with a 30 second
	// timeout is used.
	Client *http.Client
}

func (l *HTTPLoader) Load(url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		b, err := os.ReadFile(url)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	rePre    = regexp.MustCompile(`(?is)<pre[^>]*>(.*?)</pre>`)
	reEntity = regexp.MustCompile(`&#?[0-9A-Za-z]+;`)
)

// ExtractText reduces a fetched payload to assembler source: the first
// <pre>…</pre> container is unwrapped if present, and the basic entities
// are decoded. Any other entity is kept verbatim and reported through
// warn, which may be nil.
func ExtractText(s string, warn func(string)) string {
	if m := rePre.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !strings.Contains(s, "&") {
		return s
	}
	return reEntity.ReplaceAllStringFunc(s, func(e string) string {
		switch e {
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&amp;":
			return "&"
		}
		if warn != nil {
			warn(fmt.Sprintf("warning: unknown entity %s", e))
		}
		return e
	})
}
