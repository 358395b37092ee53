package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSyntax         = errors.New("syntax error")
)

const (
	CmdPut   = "put"
	CmdGet   = "get"
	CmdDel   = "del"
	CmdList  = "list-keys"
	CmdCount = "count"
	CmdQuit  = "quit"
)

const prompt = "kvm> "

// Usage lists the console commands.
const Usage = `put <key>=<value>   store key/value pair in server
get <key>           retrieve value with specified key from server
del <key>           delete value with specified key from server
list-keys           get all keys from the server
count               get count of key/value pairs stored on the server
quit                exit from application
`

// Backend is the set of operations a Console drives. *Client is one.
type Backend interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	List() ([][]byte, error)
	Count() (uint32, error)
}

// Command is one parsed console line. An empty Name is a blank line.
type Command struct {
	Name  string
	Key   []byte
	Value []byte
}

// ParseLine parses "<command> <key>[=<value>]". Only put takes a value;
// the value is everything after the first '=' and may be empty.
func ParseLine(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}

	name, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name, arg = line[:i], strings.TrimSpace(line[i+1:])
	}

	cmd := Command{Name: name}
	switch name {
	case CmdPut:
		i := strings.IndexByte(arg, '=')
		if i <= 0 {
			return cmd, fmt.Errorf("%w: usage: put <key>=<value>", ErrSyntax)
		}
		cmd.Key, cmd.Value = []byte(arg[:i]), []byte(arg[i+1:])
	case CmdGet, CmdDel:
		if arg == "" {
			return cmd, fmt.Errorf("%w: usage: %s <key>", ErrSyntax, name)
		}
		cmd.Key = []byte(arg)
	case CmdList, CmdCount, CmdQuit:
		if arg != "" {
			return cmd, fmt.Errorf("%w: %s takes no argument", ErrSyntax, name)
		}
	default:
		return cmd, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd, nil
}

type Console struct {
	b   Backend
	out io.Writer
}

func NewConsole(b Backend, out io.Writer) *Console {
	return &Console{b: b, out: out}
}

// Execute runs one line and writes its result. It reports whether the
// line asked to quit.
func (c *Console) Execute(line string) bool {
	cmd, err := ParseLine(line)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return false
	}

	switch cmd.Name {
	case "":
	case CmdQuit:
		return true
	case CmdPut:
		c.result(c.b.Put(cmd.Key, cmd.Value))
	case CmdDel:
		c.result(c.b.Delete(cmd.Key))
	case CmdGet:
		v, err := c.b.Get(cmd.Key)
		if err != nil {
			c.result(err)
			return false
		}
		fmt.Fprintf(c.out, "%s\n", v)
	case CmdList:
		keys, err := c.b.List()
		if err != nil {
			c.result(err)
			return false
		}
		for _, k := range keys {
			fmt.Fprintf(c.out, "%s\n", k)
		}
	case CmdCount:
		n, err := c.b.Count()
		if err != nil {
			c.result(err)
			return false
		}
		fmt.Fprintf(c.out, "%d\n", n)
	}
	return false
}

func (c *Console) result(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

// Run executes lines from in until quit or end of input. When interactive
// is set a prompt is written before each line.
func (c *Console) Run(in io.Reader, interactive bool) error {
	sc := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(c.out, prompt)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if c.Execute(sc.Text()) {
			return nil
		}
	}
}
