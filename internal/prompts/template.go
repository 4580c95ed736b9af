package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"text/template"
)

// variablePattern matches Go template variable references like {{.VarName}} or {{ .VarName }}
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables extracts template variable names from a Go template string.
// For example, "Explain {{.SectionTitle}} of {{.PageTitle}}" returns ["PageTitle", "SectionTitle"].
func ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, match := range variablePattern.FindAllStringSubmatch(text, -1) {
		if name := match[1]; !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Parse compiles a prompt template. Missing fields are errors rather than
// silently rendering as "<no value>".
func Parse(key, text string) (*template.Template, error) {
	tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", key, err)
	}
	return tmpl, nil
}

// Render executes a prompt template against data.
func Render(key, text string, data any) (string, error) {
	tmpl, err := Parse(key, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return buf.String(), nil
}
