package main

import "github.com/d2verb/toolbridge/internal/ui"

type StartCmd struct{}

func (c *StartCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}
	if !cl.EnsureStarted(a.ctx) {
		return errBridgeNotRunning()
	}
	ui.PrintSuccess("Bridge is running")
	return nil
}
