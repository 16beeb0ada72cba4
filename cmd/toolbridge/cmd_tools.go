package main

import (
	"github.com/d2verb/toolbridge/internal/ui"
)

type ToolsCmd struct {
	Name    string `arg:"" predictor:"provider" help:"Service name"`
	Refresh bool   `short:"r" help:"Ask the bridge to re-query the provider"`
}

func (c *ToolsCmd) Run(a *app) error {
	svc, err := a.service(c.Name, 0)
	if err != nil {
		return err
	}

	get := svc.GetTools
	if c.Refresh {
		get = svc.RefreshTools
	}
	tools, err := get(a.ctx)
	if err != nil {
		return mapError(err, c.Name)
	}

	rows := make([]ui.ToolRow, len(tools))
	for i, t := range tools {
		rows[i] = ui.ToolRow{Name: t.Name, Description: t.Description}
	}
	ui.PrintToolList(c.Name, rows)
	return nil
}
