package main

import (
	"fmt"
	"time"

	"github.com/d2verb/toolbridge/internal/ui"
)

type SpawnCmd struct {
	Name    string        `arg:"" predictor:"provider" help:"Service name"`
	Timeout time.Duration `help:"How long the bridge waits for the service to become ready (default from config)"`
}

func (c *SpawnCmd) Run(a *app) error {
	svc, err := a.service(c.Name, c.Timeout)
	if err != nil {
		return err
	}

	ui.PrintInfo(fmt.Sprintf("Starting '%s'...", c.Name))
	if err := svc.Connect(a.ctx); err != nil {
		return mapError(err, c.Name)
	}
	ui.PrintSuccess(fmt.Sprintf("'%s' is ready", c.Name))
	return nil
}

type UnspawnCmd struct {
	Name string `arg:"" predictor:"provider" help:"Service name"`
}

func (c *UnspawnCmd) Run(a *app) error {
	svc, err := a.service(c.Name, 0)
	if err != nil {
		return err
	}
	if err := svc.Disconnect(a.ctx); err != nil {
		return mapError(err, c.Name)
	}
	ui.PrintSuccess(fmt.Sprintf("Stopped '%s'", c.Name))
	return nil
}
