package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/taifuranowar/linkedin-positive-toxicity/ui"
)

// ResolveCredential resolves a credential in order: explicit flag value,
// environment variable, interactive prompt.
func ResolveCredential(flagValue, envVar, label string, secret bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	return promptValue(label, secret)
}

func promptValue(label string, secret bool) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		values, err := ui.PromptCredentials("Credentials required", []ui.Field{{Label: label, Secret: secret}})
		if err != nil {
			return "", err
		}
		return values[0], nil
	}

	// Piped stdin: plain line read.
	fmt.Printf("Enter %s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
