package riptide

import (
	"errors"
	"log/slog"
	"os/exec"
	"sync"
)

// processModule runs external programs. Commands use the calling fiber's
// streams, so they work as pipeline stages.
func processModule(*Runtime) *Table {
	procs := &processTable{byPid: make(map[int]*exec.Cmd)}

	t := NewTable()
	for name, fn := range map[string]BuiltinFunc{
		"run":   processRun,
		"spawn": procs.spawn,
		"wait":  procs.wait,
	} {
		t.Set(name, NewFunction(name, fn))
	}
	return t
}

type processTable struct {
	mu    sync.Mutex
	byPid map[int]*exec.Cmd
}

func command(f *Fiber, name string, args []Value) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, Throwf("%s: requires at least one argument (command)", name)
	}

	argv := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		argv = append(argv, a.String())
	}

	cmd := exec.Command(args[0].String(), argv...)
	cmd.Stdin = f.Stdin()
	cmd.Stdout = f.Stdout()
	cmd.Stderr = f.Stderr()
	return cmd, nil
}

// exitStatus converts the result of running cmd into an exit code. Only a
// failure to start the program is an exception.
func exitStatus(name string, err error) (Value, error) {
	if err == nil {
		return Number(0), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Number(exitErr.ExitCode()), nil
	}
	return Nil, Throwf("%s: %v", name, err)
}

// processRun runs a command to completion and returns its exit code.
func processRun(f *Fiber, args []Value) (Value, error) {
	cmd, err := command(f, "run", args)
	if err != nil {
		return Nil, err
	}

	f.logger().Debug("run command", slog.String("path", cmd.Path), slog.Any("args", cmd.Args[1:]))
	return exitStatus("run", cmd.Run())
}

// spawn starts a command in the background and returns its pid.
func (p *processTable) spawn(f *Fiber, args []Value) (Value, error) {
	cmd, err := command(f, "spawn", args)
	if err != nil {
		return Nil, err
	}
	if err := cmd.Start(); err != nil {
		return Nil, Throwf("spawn: %v", err)
	}

	pid := cmd.Process.Pid
	p.mu.Lock()
	p.byPid[pid] = cmd
	p.mu.Unlock()

	f.logger().Debug("spawned command", slog.String("path", cmd.Path), slog.Int("pid", pid))
	return Number(pid), nil
}

// wait blocks until a spawned command exits and returns its exit code.
func (p *processTable) wait(_ *Fiber, args []Value) (Value, error) {
	pid, ok := arg(args, 0).(Number)
	if !ok {
		return Nil, Throwf("wait: requires a pid")
	}

	p.mu.Lock()
	cmd, ok := p.byPid[int(pid)]
	delete(p.byPid, int(pid))
	p.mu.Unlock()

	if !ok {
		return Nil, Throwf("wait: unknown pid %d", int(pid))
	}
	return exitStatus("wait", cmd.Wait())
}
