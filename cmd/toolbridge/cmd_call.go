package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/d2verb/toolbridge/internal/render"
	"github.com/d2verb/toolbridge/internal/ui"
)

type CallCmd struct {
	Name   string            `arg:"" predictor:"provider" help:"Service name"`
	Method string            `arg:"" help:"Tool name"`
	JSON   string            `arg:"" optional:"" name:"arguments" help:"Tool arguments as a JSON object"`
	Arg    map[string]string `short:"a" help:"Single string argument (key=value), may be repeated"`
}

func (c *CallCmd) Run(a *app) error {
	args, err := c.arguments()
	if err != nil {
		return err
	}

	svc, err := a.service(c.Name, 0)
	if err != nil {
		return err
	}

	resp := svc.CallTool(a.ctx, c.Method, args)
	if !resp.Success {
		if err := mapError(resp.Err(), c.Name); isExitError(err) {
			return err
		}
		return errToolFailed(resp.ErrorMessage())
	}

	out, isErr := render.Result(resp)
	if isErr {
		fmt.Fprint(os.Stderr, out)
		return errToolFailed("")
	}
	fmt.Fprint(ui.Output, out)
	return nil
}

// arguments merges the JSON object with --arg pairs. Pairs win on conflict.
func (c *CallCmd) arguments() (map[string]any, error) {
	args := map[string]any{}
	if c.JSON != "" {
		if err := json.Unmarshal([]byte(c.JSON), &args); err != nil {
			return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	for k, v := range c.Arg {
		args[k] = v
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

func isExitError(err error) bool {
	_, ok := err.(*ExitError)
	return ok
}
