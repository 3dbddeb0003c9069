package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dimitrije/pod-console/internal/lifecycle"
)

// prompter asks the operator for one value.
type prompter func(title string, secret bool) (string, error)

var ask prompter = huhPrompt

func huhPrompt(title string, secret bool) (string, error) {
	var value string
	input := huh.NewInput().Title(title).Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// purgeConfirmation returns the token sent with a purge. The flag wins;
// otherwise the operator has to type it.
func purgeConfirmation(podID, flag string, ask prompter) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return ask(fmt.Sprintf("Type %s to permanently delete pod %s", lifecycle.ConfirmationToken, podID), false)
}
