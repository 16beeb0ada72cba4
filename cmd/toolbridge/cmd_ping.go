package main

import (
	"fmt"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/d2verb/toolbridge/internal/ui"
)

type PingCmd struct {
	Name string `arg:"" predictor:"provider" help:"Service name"`
}

func (c *PingCmd) Run(a *app) error {
	svc, err := a.service(c.Name, 0)
	if err != nil {
		return err
	}

	if err := svc.Ping(a.ctx); err != nil {
		if protocol.IsNotReady(err) {
			return &ExitError{
				Code:    exitError,
				Message: fmt.Sprintf("Service '%s' is not running.\nRun: toolbridge spawn %s", c.Name, c.Name),
			}
		}
		return mapError(err, c.Name)
	}
	ui.PrintPing(c.Name, svc.LastPingLatency())
	return nil
}
