package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List discovered skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *components) error {
			fmt.Println(formatSkillTable(c.skills.List()))
			return nil
		})
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the composed system prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *components) error {
			fmt.Println(c.agent.SystemPrompt())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(promptCmd)
}
