package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// PromptSecret reads one line from the terminal without echo. When stdin is not a terminal the
// line is read as-is so secrets can be piped in.
func PromptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec

	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read from terminal")
	}

	return string(secret), nil
}

var stdinReader *bufio.Reader

func readLine(r io.Reader) (string, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(r)
	}

	line, err := stdinReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.Wrap(err, "failed to read from stdin")
	}

	return strings.TrimRight(line, "\r\n"), nil
}
