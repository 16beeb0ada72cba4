package main

import (
	"fmt"

	"github.com/d2verb/toolbridge/internal/providers"
	"github.com/d2verb/toolbridge/internal/ui"
)

type RegisterCmd struct {
	Name string `arg:"" optional:"" predictor:"provider" help:"Provider definition name"`
	File string `short:"f" type:"existingfile" help:"Register the definition in this YAML file instead"`
	Show bool   `help:"Print the definition before registering"`
}

func (c *RegisterCmd) Run(a *app) error {
	def, err := c.load(a)
	if err != nil {
		return mapError(err, c.Name)
	}

	if c.Show {
		ui.PrintProviderDetails(ui.ProviderDetails{
			Name:        def.Name,
			Description: def.Description,
			CommandLine: def.CommandLine(),
			Cwd:         def.Cwd,
			EnvNames:    def.EnvNames(),
		})
	}

	cl, err := a.client()
	if err != nil {
		return err
	}
	resp, err := cl.Register(a.ctx, def.RegisterParams())
	if err != nil {
		return mapError(err, def.Name)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("register %s: %w", def.Name, err)
	}

	ui.PrintSuccess(fmt.Sprintf("Registered '%s'", def.Name))
	return nil
}

func (c *RegisterCmd) load(a *app) (*providers.Definition, error) {
	switch {
	case c.File != "":
		return providers.LoadFile(c.File)
	case c.Name != "":
		return a.loader().Load(c.Name)
	default:
		return nil, fmt.Errorf("provider name or --file is required")
	}
}

type UnregisterCmd struct {
	Name string `arg:"" predictor:"provider" help:"Service name"`
}

func (c *UnregisterCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	resp, err := cl.Unregister(a.ctx, c.Name)
	if err != nil {
		return mapError(err, c.Name)
	}
	if err := resp.Err(); err != nil {
		return mapError(err, c.Name)
	}

	ui.PrintSuccess(fmt.Sprintf("Unregistered '%s'", c.Name))
	return nil
}
