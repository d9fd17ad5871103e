// Utilities for lifting headers out of a cURL command copied from the browser.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlAgentRegex  = regexp.MustCompile(`(?:-A|--user-agent)\s+'([^']+)'|(?:-A|--user-agent)\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(path string) (*CurlHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// The cookie comes from -b when present, otherwise from a "Cookie:" header.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	parsed := &CurlHeaders{Headers: make(map[string]string)}
	var headerCookie string

	for _, line := range quotedValues(curlHeaderRegex, cmd) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		parsed.Headers[key] = value
	}

	if agents := quotedValues(curlAgentRegex, cmd); len(agents) > 0 {
		parsed.Headers["User-Agent"] = agents[0]
	}

	if cookies := quotedValues(curlCookieRegex, cmd); len(cookies) > 0 {
		parsed.Cookie = cookies[0]
	} else {
		parsed.Cookie = headerCookie
	}

	if len(parsed.Headers) == 0 && parsed.Cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}
	return parsed, nil
}

// Header converts the parsed values to an [http.Header], cookie included.
func (c *CurlHeaders) Header() http.Header {
	h := make(http.Header, len(c.Headers)+1)
	for key, value := range c.Headers {
		h.Set(key, value)
	}
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
	return h
}

func quotedValues(re *regexp.Regexp, s string) []string {
	var values []string
	for _, match := range re.FindAllStringSubmatch(s, -1) {
		if match[1] != "" {
			values = append(values, match[1])
		} else {
			values = append(values, match[2])
		}
	}
	return values
}
