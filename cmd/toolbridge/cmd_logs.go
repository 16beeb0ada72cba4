package main

import (
	"fmt"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/d2verb/toolbridge/internal/ui"
)

type LogsCmd struct {
	Name  string `arg:"" optional:"" predictor:"provider" help:"Only show lines for this service"`
	Lines int    `short:"n" default:"50" help:"Number of lines to show"`
}

func (c *LogsCmd) Run(a *app) error {
	cl, err := a.client()
	if err != nil {
		return err
	}

	resp, err := cl.GetLogs(a.ctx, c.Name, c.Lines)
	if err != nil {
		return mapError(err, c.Name)
	}
	if err := resp.Err(); err != nil {
		return mapError(err, c.Name)
	}

	var result protocol.LogsResult
	if len(resp.Result) > 0 {
		if err := resp.DecodeResult(&result); err != nil {
			return err
		}
	}
	if len(result.Lines) == 0 {
		ui.PrintInfo("No log lines.")
		return nil
	}
	for _, line := range result.Lines {
		fmt.Fprintln(ui.Output, line)
	}
	return nil
}
