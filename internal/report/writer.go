package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Files are the artifacts written for one report.
type Files struct {
	Markdown   string `json:"markdown"`
	EmailDraft string `json:"email_draft"`
}

// WriteFiles writes the Markdown report and a matching .eml draft into
// outputDir, both named <team>_<YYYYMMDD>.
func WriteFiles(content, outputDir string, reportDate time.Time, team string) (Files, error) {
	md, err := WriteMarkdown(content, outputDir, reportDate, team)
	if err != nil {
		return Files{}, err
	}
	eml, err := WriteEmailDraft(content, outputDir, reportDate, team)
	if err != nil {
		return Files{Markdown: md}, err
	}
	return Files{Markdown: md, EmailDraft: eml}, nil
}

func WriteMarkdown(content, outputDir string, reportDate time.Time, team string) (string, error) {
	return writeArtifact(outputDir, artifactName(team, reportDate, "md"), content)
}

func WriteEmailDraft(body, outputDir string, reportDate time.Time, team string) (string, error) {
	subject := fmt.Sprintf("%s Quality Report - %s", team, reportDate.Format("January 02, 2006"))
	return writeArtifact(outputDir, artifactName(team, reportDate, "eml"), buildEML(subject, body))
}

func artifactName(team string, reportDate time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(team), reportDate.Format("20060102"), ext)
}

func writeArtifact(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

const emlBoundary = "qualityreport-alt"

func buildEML(subject, body string) string {
	plain := normalizeCRLF(markdownToPlain(body))
	var out strings.Builder
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", emlBoundary)
	fmt.Fprintf(&out, "Subject: %s\r\n\r\n", subject)

	writePart := func(contentType, content string) {
		out.WriteString("--" + emlBoundary + "\r\n")
		fmt.Fprintf(&out, "Content-Type: %s; charset=UTF-8\r\n", contentType)
		out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		out.WriteString(content)
		if !strings.HasSuffix(content, "\r\n") {
			out.WriteString("\r\n")
		}
		out.WriteString("\r\n")
	}
	writePart("text/plain", plain)
	writePart("text/html", markdownToHTML(body))
	out.WriteString("--" + emlBoundary + "--\r\n")
	return out.String()
}

var unsafeFilenameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

// sanitizeFilename replaces path separators and characters that are not
// valid in Windows file names, and drops leading dots.
func sanitizeFilename(s string) string {
	s = unsafeFilenameChars.Replace(s)
	s = strings.TrimLeft(s, ".")
	if s == "" {
		return "report"
	}
	return s
}

func normalizeCRLF(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

// headingText returns the text of a Markdown heading of any level.
func headingText(trimmed string) (string, int, bool) {
	level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
	if level == 0 || level > 6 || !strings.HasPrefix(trimmed[level:], " ") {
		return "", 0, false
	}
	return strings.TrimSpace(trimmed[level:]), level, true
}

func markdownToPlain(body string) string {
	var out []string
	prevBlank := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if text, level, ok := headingText(trimmed); ok {
			line = text
			if level <= 2 {
				line = strings.ToUpper(text)
			}
		}
		line = strings.ReplaceAll(line, "**", "")
		if strings.TrimSpace(line) == "" {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		prevBlank = false
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

const (
	htmlOpen  = `<html><body style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f; line-height: 1.35;">`
	htmlClose = `</body></html>`
	ulOpen    = `<ul style="margin: 0 0 0 18px; padding-left: 18px;">`
)

var (
	boldTokenRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	orderedItemRe = regexp.MustCompile(`^\d+\.\s+`)
	headingStyles = map[int]string{1: "font-size: 16pt;", 2: "font-size: 13pt;"}
)

// markdownToHTML renders the subset of Markdown the report uses: headings,
// bold spans and bullet or numbered lists nested by two-space indents.
func markdownToHTML(body string) string {
	var b strings.Builder
	b.WriteString(htmlOpen)
	// open[i] reports whether the list at depth i has an unclosed <li>.
	var open []bool

	closeTo := func(depth int) {
		for len(open) > depth {
			last := len(open) - 1
			if open[last] {
				b.WriteString(`</li>`)
			}
			b.WriteString(`</ul>`)
			open = open[:last]
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			closeTo(0)
			b.WriteString(`<div style="height: 10px;"></div>`)
			continue
		case strings.HasPrefix(trimmed, "```"):
			continue
		}
		if text, level, ok := headingText(trimmed); ok {
			closeTo(0)
			fmt.Fprintf(&b, `<div style="font-weight: 700; margin: 12px 0 6px 0; %s">%s</div>`, headingStyles[level], renderInlineBold(text))
			continue
		}

		content := strings.TrimLeft(line, " ")
		item, isItem := strings.CutPrefix(content, "- ")
		if !isItem && orderedItemRe.MatchString(content) {
			item, isItem = content, true
		}
		if !isItem {
			closeTo(0)
			b.WriteString(`<div style="margin: 2px 0;">` + renderInlineBold(trimmed) + `</div>`)
			continue
		}

		depth := (len(line)-len(content))/2 + 1
		closeTo(depth)
		for len(open) < depth {
			b.WriteString(ulOpen)
			open = append(open, false)
		}
		if open[depth-1] {
			b.WriteString(`</li>`)
		}
		b.WriteString(`<li style="margin: 2px 0;">` + renderInlineBold(strings.TrimSpace(item)))
		open[depth-1] = true
	}
	closeTo(0)
	b.WriteString(htmlClose)
	return b.String()
}

func renderInlineBold(s string) string {
	var out strings.Builder
	last := 0
	for _, m := range boldTokenRe.FindAllStringSubmatchIndex(s, -1) {
		out.WriteString(html.EscapeString(s[last:m[0]]))
		out.WriteString("<strong>" + html.EscapeString(s[m[2]:m[3]]) + "</strong>")
		last = m[1]
	}
	out.WriteString(html.EscapeString(s[last:]))
	return out.String()
}
