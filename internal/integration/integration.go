// Package integration provides embedded shell integration snippets.
package integration

import (
	"bytes"
	_ "embed"
	"fmt"
	"os/exec"
	"path/filepath"
	"text/template"
)

// ZshFzf contains the zsh shell integration script with fzf support.
//
//go:embed zsh-fzf.sh
var ZshFzf string

// Script holds the values substituted into the integration script.
type Script struct {
	// ZSH is the path of the zsh interpreter.
	ZSH string
	// Binary is the dirclean command the script invokes.
	Binary string
}

// Render renders the integration script for the zsh found on PATH.
func Render() (string, error) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		return "", fmt.Errorf("locating zsh: %w", err)
	}

	return RenderScript(Script{ZSH: filepath.ToSlash(zsh), Binary: "dirclean"})
}

// RenderScript renders the integration script with the given values.
func RenderScript(s Script) (string, error) {
	tmpl, err := template.New("zsh-fzf").Parse(ZshFzf)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return "", err
	}

	return buf.String(), nil
}
