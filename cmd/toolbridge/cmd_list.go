package main

import (
	"fmt"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/d2verb/toolbridge/internal/ui"
)

type ListCmd struct{}

func (c *ListCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}

	resp, err := cl.ListServices(a.ctx, "")
	if err != nil {
		return mapError(err, "")
	}
	services, err := protocol.ParseServices(resp)
	if err != nil {
		return err
	}

	rows := make([]ui.ServiceRow, len(services))
	registered := make(map[string]bool, len(services))
	for i, s := range services {
		rows[i] = ui.ServiceRow{Name: s.Name, Active: s.Active, Ready: s.Ready, ToolCount: s.ToolCount}
		registered[s.Name] = true
	}
	ui.PrintServiceList(rows)

	// Local definitions the bridge does not know about yet.
	names, err := a.loader().List()
	if err != nil {
		ui.PrintWarning(err.Error())
	}
	var pending []string
	for _, name := range names {
		if !registered[name] {
			pending = append(pending, name)
		}
	}
	if len(pending) > 0 {
		fmt.Fprintln(ui.Output)
		for _, name := range pending {
			ui.PrintInfo(fmt.Sprintf("Not registered: %s (run: toolbridge register %s)", name, name))
		}
	}
	return nil
}
