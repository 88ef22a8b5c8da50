package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foxseedlab/jimakun/internal/transcript"
)

type Format string

const (
	FormatTXT Format = "txt"
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTXT, FormatVTT, FormatSRT:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Render produces the transcript in the requested format. It is a pure
// function of the segment sequence.
func Render(format Format, segments []transcript.Segment) ([]byte, error) {
	switch format {
	case FormatTXT:
		return renderTXT(segments), nil
	case FormatVTT:
		return renderVTT(segments), nil
	case FormatSRT:
		return renderSRT(segments), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteAll renders every requested format into dir as <base>.<format>,
// returning the written paths.
func WriteAll(dir, base string, formats []string, segments []transcript.Segment) ([]string, error) {
	var paths []string
	for _, f := range formats {
		format, err := ParseFormat(f)
		if err != nil {
			return paths, err
		}
		body, err := Render(format, segments)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", base, format))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderTXT(segments []transcript.Segment) []byte {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Text)
	}
	return []byte(strings.Join(lines, "\n"))
}

func renderVTT(segments []transcript.Segment) []byte {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", vttTime(seg.StartTimeMs), vttTime(seg.EndTimeMs), seg.Text)
	}
	return []byte(b.String())
}

func renderSRT(segments []transcript.Segment) []byte {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(seg.StartTimeMs), srtTime(seg.EndTimeMs), seg.Text)
	}
	return []byte(b.String())
}

func vttTime(ms int64) string {
	h, m, s, milli := splitMs(ms)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, milli)
}

func srtTime(ms int64) string {
	h, m, s, milli := splitMs(ms)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, milli)
}

func splitMs(ms int64) (h, m, s, milli int64) {
	if ms < 0 {
		ms = 0
	}
	return ms / 3600000, ms % 3600000 / 60000, ms % 60000 / 1000, ms % 1000
}
