package main

import (
	"fmt"
	"strings"

	"github.com/d2verb/toolbridge/internal/editor"
	"github.com/d2verb/toolbridge/internal/providers"
	"github.com/d2verb/toolbridge/internal/ui"
)

type NewCmd struct{}

func (c *NewCmd) Run(a *app) error {
	fmt.Fprintln(ui.Output, ui.Bold("Create Provider"))

	name, err := promptLine("Name", "")
	if err != nil {
		return err
	}
	if err := providers.ValidateName(name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	command, err := promptLine("Command", "")
	if err != nil {
		return err
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("command is required")
	}

	description, _ := promptLine("Description", "")
	cwd, _ := promptLine("Working directory", "")

	def := &providers.Definition{
		Name:        name,
		Description: description,
		Command:     fields[0],
		Args:        fields[1:],
		Cwd:         cwd,
	}
	if err := a.loader().Create(def); err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Created '%s'", name))
	ui.PrintInfo(fmt.Sprintf("toolbridge register %s", name))
	return nil
}

type EditCmd struct {
	Name string `arg:"" predictor:"provider" help:"Provider definition to edit"`
}

func (c *EditCmd) Run(a *app) error {
	path, err := a.loader().Path(c.Name)
	if err != nil {
		return mapError(err, c.Name)
	}
	return editor.Open(a.ctx, path)
}
