package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zioncity/zion-sync/internal/work"
	"github.com/zioncity/zion-sync/internal/zion"
)

func runEric(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zion eric get|set -org=<org> [flags]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("eric "+args[0], flag.ExitOnError)
	org := fs.String("org", "", "Work organization id")
	enabled := fs.Bool("enabled", false, "Enable the assistant")
	employees := fs.Bool("employee-data", false, "Allow access to employee data")
	financial := fs.Bool("financial-data", false, "Allow access to financial data")
	tasks := fs.Bool("task-data", false, "Allow access to task data")
	customers := fs.Bool("customer-data", false, "Allow access to customer data")
	instructions := fs.String("instructions", "", "Custom instructions")
	fs.Parse(args[1:])

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	settings := work.NewSettings(store.Client())

	var (
		current *zion.EricSettings
		err     error
	)
	switch args[0] {
	case "get":
		current, err = settings.Load(ctx, *org)
	case "set":
		current, err = settings.Save(ctx, *org, zion.EricSettings{
			IsEnabled:              *enabled,
			CanAccessEmployeeData:  *employees,
			CanAccessFinancialData: *financial,
			CanAccessTaskData:      *tasks,
			CanAccessCustomerData:  *customers,
			CustomInstructions:     *instructions,
		})
	default:
		fmt.Printf("Unknown eric command: %s\n", args[0])
		os.Exit(1)
	}
	if err != nil {
		fatal("with assistant settings", err)
	}

	fmt.Printf("Enabled:        %v\n", current.IsEnabled)
	fmt.Printf("Employee data:  %v\n", current.CanAccessEmployeeData)
	fmt.Printf("Financial data: %v\n", current.CanAccessFinancialData)
	fmt.Printf("Task data:      %v\n", current.CanAccessTaskData)
	fmt.Printf("Customer data:  %v\n", current.CanAccessCustomerData)
	if current.CustomInstructions != "" {
		fmt.Printf("Instructions:   %s\n", current.CustomInstructions)
	}
}

func runTemplates(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zion templates list|create|update|delete -org=<org> [flags] [template-id]")
		os.Exit(1)
	}
	action := args[0]

	fs := flag.NewFlagSet("templates "+action, flag.ExitOnError)
	org := fs.String("org", "", "Work organization id")
	var tmpl zion.TaskTemplate
	fs.StringVar(&tmpl.Name, "name", "", "Template name")
	fs.StringVar(&tmpl.TitleTemplate, "title", "", "Title template of created tasks")
	fs.StringVar(&tmpl.Description, "description", "", "Description")
	fs.StringVar(&tmpl.DefaultPriority, "priority", "", "LOW, MEDIUM, HIGH or URGENT")
	fs.IntVar(&tmpl.DefaultDeadlineDays, "deadline-days", 0, "Days until the deadline")
	fs.BoolVar(&tmpl.RequiresReview, "review", false, "Tasks require review")
	var subtasks fileList
	fs.Var(&subtasks, "subtask", "Subtask title (repeatable)")
	fs.Parse(args[1:])
	tmpl.Subtasks = subtasks

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	templates := work.NewTemplates(store.Client(), *org)

	switch action {
	case "list":
		items, err := templates.List(ctx)
		if err != nil {
			fatal("listing templates", err)
		}
		if len(items) == 0 {
			fmt.Println("No templates")
			return
		}
		for _, t := range items {
			printTemplate(t)
		}
	case "create":
		created, err := templates.Create(ctx, tmpl)
		if err != nil {
			fatal("creating template", err)
		}
		printTemplate(*created)
	case "update":
		if fs.NArg() < 1 {
			fmt.Println("Usage: zion templates update -org=<org> [flags] <template-id>")
			os.Exit(1)
		}
		updated, err := templates.Update(ctx, fs.Arg(0), tmpl)
		if err != nil {
			fatal("updating template", err)
		}
		printTemplate(*updated)
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: zion templates delete -org=<org> <template-id>")
			os.Exit(1)
		}
		if err := templates.Delete(ctx, fs.Arg(0)); err != nil {
			fatal("deleting template", err)
		}
		fmt.Println("Deleted")
	default:
		fmt.Printf("Unknown templates command: %s\n", action)
		os.Exit(1)
	}
}

func printTemplate(t zion.TaskTemplate) {
	fmt.Printf("[%s] %s\n", t.ID, t.Name)
	fmt.Printf("  Title:    %s\n", t.TitleTemplate)
	fmt.Printf("  Priority: %s, deadline %d days, review %v\n", t.DefaultPriority, t.DefaultDeadlineDays, t.RequiresReview)
	if t.Description != "" {
		fmt.Printf("  %s\n", t.Description)
	}
	if len(t.Subtasks) > 0 {
		fmt.Printf("  Subtasks: %s\n", strings.Join(t.Subtasks, ", "))
	}
}
