package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adamscao/certwatch/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage agent tokens",
}

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an agent token and its hash for ingest.token_hashes",
	Args:  cobra.NoArgs,
	RunE:  generateToken,
}

func init() {
	tokenCmd.AddCommand(tokenGenerateCmd)
}

func generateToken(cmd *cobra.Command, args []string) error {
	token, err := auth.GenerateAgentToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	hash, err := auth.HashToken(token)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	fmt.Printf("\nAgent token: %s\n", color.New(color.Bold).Sprint(token))
	fmt.Printf("Token hash:  %s\n", hash)
	fmt.Printf("\nAdd the hash to ingest.token_hashes and give the token to the agent.\n")
	fmt.Printf("The token cannot be recovered from the hash.\n")

	return nil
}
