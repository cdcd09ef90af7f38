package dispatch

import (
	"context"
	"fmt"
	"strings"

	"printwatch/internal/logging"
)

const (
	fileToken    = "{file}"
	printerToken = "{printer}"
)

// Command runs a user supplied program per submission. The template is split
// on whitespace and placeholders are substituted per token, so no shell is
// involved and paths with spaces stay a single argument.
type Command struct {
	logger *logging.Logger
	tokens []string
}

func ParseCommand(template string, logger *logging.Logger) (*Command, error) {
	tokens := strings.Fields(template)
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	hasFile := false
	for _, token := range tokens {
		if strings.Contains(token, fileToken) {
			hasFile = true
			break
		}
	}
	if !hasFile {
		return nil, fmt.Errorf("%w: %q", ErrNoFileToken, template)
	}
	return &Command{logger: logger, tokens: tokens}, nil
}

// Expand returns the argv for one submission. Tokens that expand to the empty
// string are dropped.
func (c *Command) Expand(path, target string) []string {
	replacer := strings.NewReplacer(fileToken, path, printerToken, target)
	argv := make([]string, 0, len(c.tokens))
	for _, token := range c.tokens {
		expanded := replacer.Replace(token)
		if expanded == "" {
			continue
		}
		argv = append(argv, expanded)
	}
	return argv
}

func (c *Command) Dispatch(ctx context.Context, path, target string) error {
	argv := c.Expand(path, target)
	return run(ctx, c.logger, argv[0], argv[1:]...)
}

func (c *Command) String() string {
	return strings.Join(c.tokens, " ")
}
