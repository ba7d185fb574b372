package vault

import (
	"fmt"
	"strings"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
	"gopkg.in/yaml.v3"
)

// EncodeItem renders an item as markdown with YAML frontmatter. Header keys
// are emitted in sorted order by the YAML encoder, so encoding is
// deterministic.
func EncodeItem(item *models.Item) (string, error) {
	var sb strings.Builder

	if len(item.Header) > 0 {
		fmBytes, err := yaml.Marshal(item.Header)
		if err != nil {
			return "", fmt.Errorf("marshaling frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fmBytes)
		sb.WriteString("---\n\n")
	}
	sb.WriteString(item.Body)

	return sb.String(), nil
}

// DecodeItem parses markdown content into a header map and body. Content
// without a frontmatter block yields an empty header and the full text as
// body; a malformed block degrades the same way rather than failing, because
// header fields are advisory and the router must fail closed, not crash.
func DecodeItem(name string, stage models.Stage, content string) *models.Item {
	header, body := splitFrontmatter(content)
	return &models.Item{
		Name:   name,
		Stage:  stage,
		Header: header,
		Body:   body,
	}
}

// splitFrontmatter splits content into its YAML frontmatter map and body.
// The frontmatter is delimited by "---" lines at the top of the file.
func splitFrontmatter(content string) (map[string]string, string) {
	if !strings.HasPrefix(content, "---\n") {
		return map[string]string{}, content
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n---") {
			idx = len(rest) - 4
		} else {
			return map[string]string{}, content
		}
	}

	fmStr := rest[:idx]
	body := strings.TrimLeft(rest[idx+4:], "\n")

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(fmStr), &raw); err != nil {
		// Advisory data only: a broken header block becomes an empty header,
		// and the item routes through its filename or body instead.
		return map[string]string{}, body
	}

	header := make(map[string]string, len(raw))
	for k, v := range raw {
		header[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(fmt.Sprint(v))
	}
	return header, body
}

// Section extracts the text of a named `## Section` from the item body: the
// lines between the matching header and the next `##` header (or end of
// file), trimmed. The boolean reports whether the section exists.
func Section(body, name string) (string, bool) {
	lines := strings.Split(body, "\n")
	var collected []string
	inSection := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			if inSection {
				break
			}
			if strings.EqualFold(strings.TrimSpace(trimmed[3:]), name) {
				inSection = true
			}
			continue
		}
		if inSection {
			collected = append(collected, line)
		}
	}

	if !inSection {
		return "", false
	}
	return strings.TrimSpace(strings.Join(collected, "\n")), true
}
