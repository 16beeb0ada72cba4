package main

import (
	"fmt"

	"github.com/d2verb/toolbridge/internal/ui"
)

type ResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (c *ResetCmd) Run(a *app) error {
	if !c.Yes && !promptConfirm("Stop every service and clear bridge state?") {
		fmt.Println("Cancelled.")
		return nil
	}

	cl, err := a.client()
	if err != nil {
		return err
	}
	resp, err := cl.Reset(a.ctx)
	if err != nil {
		return mapError(err, "")
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	ui.PrintSuccess("Bridge reset")
	return nil
}
