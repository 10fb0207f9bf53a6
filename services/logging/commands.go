// services/logging/commands.go
package logging

import (
	"strconv"
	"strings"

	"github.com/google/shlex"

	"relaycode-go/errcode"
)

// Command describes one runtime text command.
type Command struct {
	Name string
	Args string
	Help string
}

var commands = []Command{
	{"loglevel", "<0..9>", "Set log threshold: 0 none, 1 error, 2 warn, 3 info, 4 debug, 5 extradebug, 6 all"},
	{"logfeature", "<feature> [0|1]", "Enable or disable one log feature; value defaults to 1"},
	{"logtype", "<direct|buffered>", "direct writes straight to serial, anything else buffers"},
	{"logdelay", "<ms>", "Pause after every buffered line; negative derives it from line length, 0 disables"},
}

// Commands lists the text commands Exec understands.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

// Exec runs one text command line such as "loglevel 4". Command names are
// case-insensitive. On error the setting it targets keeps its old value.
func (e *Engine) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "exec", err.Error(), err)
	}
	if len(args) == 0 {
		return errcode.InvalidParams
	}
	name, args := strings.ToLower(args[0]), args[1:]
	switch name {
	case "loglevel":
		return e.cmdLevel(args)
	case "logfeature":
		return e.cmdFeature(args)
	case "logtype":
		return e.cmdType(args)
	case "logdelay":
		return e.cmdDelay(args)
	}
	return errcode.Wrap(errcode.Unsupported, name, "", nil)
}

func (e *Engine) cmdLevel(args []string) error {
	if len(args) < 1 {
		e.Error(FeatureCmd, "loglevel needs a value")
		return errcode.Wrap(errcode.InvalidParams, "loglevel", "missing value", nil)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		e.Error(FeatureCmd, "loglevel %q is not a number", args[0])
		return errcode.Wrap(errcode.InvalidParams, "loglevel", args[0], err)
	}
	if !validLevel(v) {
		e.Error(FeatureCmd, "loglevel %d out of range", v)
		return errcode.Wrap(errcode.OutOfRange, "loglevel", args[0], nil)
	}
	e.settings.SetLevel(Level(v))
	e.Debug(FeatureCmd, "loglevel set %d", v)
	return nil
}

func (e *Engine) cmdFeature(args []string) error {
	if len(args) < 1 {
		e.Error(FeatureCmd, "logfeature needs a feature")
		return errcode.Wrap(errcode.InvalidParams, "logfeature", "missing feature", nil)
	}
	f, err := strconv.Atoi(args[0])
	if err != nil {
		e.Error(FeatureCmd, "logfeature %q is not a number", args[0])
		return errcode.Wrap(errcode.InvalidParams, "logfeature", args[0], err)
	}
	on := true
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			e.Error(FeatureCmd, "logfeature value %q is not a number", args[1])
			return errcode.Wrap(errcode.InvalidParams, "logfeature", args[1], err)
		}
		on = v != 0
	}
	if !validFeature(f) {
		e.Error(FeatureCmd, "logfeature %d out of range", f)
		return errcode.Wrap(errcode.OutOfRange, "logfeature", args[0], nil)
	}
	mask, _ := e.settings.SetFeature(Feature(f), on)
	e.Debug(FeatureCmd, "logfeature set 0x%08X", mask)
	return nil
}

func (e *Engine) cmdType(args []string) error {
	direct := len(args) > 0 && args[0] == "direct"
	e.settings.SetDirect(direct)
	e.Debug(FeatureCmd, "logtype set %s", e.settings.Mode())
	return nil
}

func (e *Engine) cmdDelay(args []string) error {
	ms := 0
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			ms = v
		}
	}
	e.settings.SetDelay(ms)
	e.Debug(FeatureCmd, "logdelay set %d", e.settings.Delay())
	return nil
}
