package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calagent/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	markdown, err := toolsDocumentation()
	if err != nil {
		return err
	}

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// toolsDocumentation registers every tool, write tools included, and renders
// the markdown reference. No credentials are needed.
func toolsDocumentation() (string, error) {
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Location: time.UTC,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	fullSrv, err := newMCPServer(serverContext, false)
	if err != nil {
		return "", err
	}
	readOnlySrv, err := newMCPServer(serverContext, true)
	if err != nil {
		return "", err
	}

	readOnlyTools := readOnlySrv.ListTools()
	tools := make([]mcp.Tool, 0, len(fullSrv.ListTools()))
	writeTools := make(map[string]bool)
	for name, serverTool := range fullSrv.ListTools() {
		tools = append(tools, serverTool.Tool)
		if _, ok := readOnlyTools[name]; !ok {
			writeTools[name] = true
		}
	}

	return generateToolsMarkdown(tools, writeTools), nil
}

// generateToolsMarkdown renders the reference. writeTools names the tools
// that are only registered with --yolo.
func generateToolsMarkdown(tools []mcp.Tool, writeTools map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running calagent as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Multi-Account Support\n\n")
	sb.WriteString("All Google-related MCP tools support an optional `account` parameter to specify which Google account to use:\n\n")
	sb.WriteString("- **Default behavior:** If `account` is not specified, the `default` account is used\n")
	sb.WriteString("- **Multiple accounts:** You can manage multiple Google accounts (e.g., `work`, `personal`)\n")
	sb.WriteString("- **Per-call selection:** Each tool call can use a different account\n\n")

	sb.WriteString("## Natural-Language Dates\n\n")
	sb.WriteString("Arguments that take a date or time accept RFC3339 as well as phrases such as `tomorrow at 3pm` or `next monday morning`. ")
	sb.WriteString("Phrases are interpreted in the server's timezone and sent to Google Calendar in UTC.\n\n")

	if len(writeTools) > 0 {
		names := make([]string, 0, len(writeTools))
		for name := range writeTools {
			names = append(names, "`"+name+"`")
		}
		sort.Strings(names)
		sb.WriteString("## Read-Only Mode\n\n")
		sb.WriteString(fmt.Sprintf("The server starts read-only. %s are only registered when it runs with `--yolo`.\n\n", strings.Join(names, ", ")))
	}

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool, writeTools[tool.Name]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategoryFromToolName(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 0 {
		return "Other"
	}

	prefix := parts[0]
	switch prefix {
	case "calendar":
		return "Google Calendar Tools"
	case "google":
		return "Google Authentication Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool, write bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}
	if write {
		sb.WriteString("*Write operation, requires `--yolo`.*\n\n")
	}

	// Input schema
	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			prop := tool.InputSchema.Properties[name]
			isRequired := slices.Contains(tool.InputSchema.Required, name)

			requiredStr := "optional"
			if isRequired {
				requiredStr = "required"
			}

			// Get property type and description from the property map
			propMap, ok := prop.(map[string]interface{})
			if !ok {
				continue
			}

			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s): ", name, requiredStr))

			// Get description
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}

			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
