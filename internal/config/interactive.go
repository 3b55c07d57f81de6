package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, "Enter Zenodo personal access token (leave empty to use $"+AccessTokenEnv+")")
	if err != nil {
		return err
	}
	config.AccessToken = input

	input, err = ask(scanner, "Use the Zenodo sandbox? [y/N]")
	if err != nil {
		return err
	}
	switch strings.ToLower(input) {
	case "y", "yes":
		config.Sandbox = true
	case "", "n", "no":
		config.Sandbox = false
	default:
		return fmt.Errorf("invalid answer '%s', expected y or n", input)
	}

	input, err = ask(scanner, fmt.Sprintf("Enter local directory path [default: %s]", config.LocalDir))
	if err != nil {
		return err
	}
	if input != "" {
		config.LocalDir = input
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}
