// Package media rewrites upstream HLS manifests so segments resolve through
// this server and proxies MP4 byte ranges.
package media

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	uriMP4  = regexp.MustCompile(`URI="([^"]+\.mp4)"`)
	extinfR = regexp.MustCompile(`#EXTINF:([0-9.]+),`)
)

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// RewritePlaylist points relative .ts segments at segmentBase and relative
// .mp4 fragments (bare lines and URI="..." attributes) at mp4Route. Absolute
// URIs and other lines are left alone; line endings are preserved.
func RewritePlaylist(manifest, segmentBase, mp4Route string) string {
	lines := strings.SplitAfter(manifest, "\n")
	var b strings.Builder
	b.Grow(len(manifest) + len(lines)*len(segmentBase)/4)
	for _, raw := range lines {
		body, eol := splitEOL(raw)
		b.WriteString(rewriteLine(body, segmentBase, mp4Route))
		b.WriteString(eol)
	}
	return b.String()
}

func splitEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

func rewriteLine(line, segmentBase, mp4Route string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return uriMP4.ReplaceAllStringFunc(line, func(m string) string {
			uri := uriMP4.FindStringSubmatch(m)[1]
			if isAbsolute(uri) {
				return m
			}
			return `URI="` + mp4Route + uri + `"`
		})
	}
	if trimmed == "" || isAbsolute(trimmed) {
		return line
	}
	switch {
	case strings.HasSuffix(trimmed, ".ts"):
		return segmentBase + trimmed
	case strings.HasSuffix(trimmed, ".mp4"):
		return mp4Route + trimmed
	}
	return line
}

// SumDuration adds every #EXTINF duration in manifest and rounds to the
// nearest second.
func SumDuration(manifest string) int {
	var total float64
	for _, m := range extinfR.FindAllStringSubmatch(manifest, -1) {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		total += f
	}
	return int(math.Round(total))
}

// CleanVideoID strips a leading "v" and a trailing ".mp4" from a route id.
func CleanVideoID(id string) string {
	id = strings.TrimPrefix(id, "v")
	return strings.TrimSuffix(id, ".mp4")
}
