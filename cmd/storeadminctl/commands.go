package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rodaine/table"
	"golang.org/x/term"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

const masked = "********"

// SeedCmd writes the catalog's default values.
type SeedCmd struct {
	Overwrite bool `help:"Also overwrite keys that already have a value."`
}

// Run executes the seed command.
func (c *SeedCmd) Run(env *Env) error {
	n, err := env.Svc.SeedDefaults(env.Ctx, c.Overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Seeded %d settings.\n", n)
	return nil
}

// ListCmd prints stored settings as a table.
type ListCmd struct {
	Section string `help:"Only list this section." short:"s"`
}

// Run executes the list command.
func (c *ListCmd) Run(env *Env) error {
	cat := env.Svc.Catalog()
	sections := cat.Names()
	if c.Section != "" {
		if _, ok := cat.Section(c.Section); !ok {
			return fmt.Errorf("unknown section %q (known: %s)", c.Section, strings.Join(sections, ", "))
		}
		sections = []string{c.Section}
	}

	tbl := table.New("Section", "Key", "Type", "Encrypted", "Value").WithWriter(env.Out)
	rows := 0
	for _, section := range sections {
		settings, err := env.Svc.Settings(env.Ctx, section)
		if err != nil {
			return err
		}
		sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
		for _, s := range settings {
			tbl.AddRow(s.Section, s.Key, string(s.Type), s.IsEncrypted, displayValue(s))
			rows++
		}
	}

	if rows == 0 {
		fmt.Fprintln(env.Out, "No settings stored. Run `storeadminctl seed` to write defaults.")
		return nil
	}
	tbl.Print()
	return nil
}

// displayValue masks password-typed and hashed values.
func displayValue(s model.Setting) string {
	if s.Value == "" {
		return ""
	}
	if s.Type == model.FieldTypePassword || s.Key == model.KeyMasterPasscode {
		return masked
	}
	return s.Value
}

// SetCmd stores one setting after running it through the section's rules.
type SetCmd struct {
	Key   string `arg:"" help:"Setting key, e.g. sales_tax."`
	Value string `arg:"" help:"New value."`
}

// Run executes the set command.
func (c *SetCmd) Run(env *Env) error {
	if c.Key == model.KeyMasterPasscode {
		return errors.New("use `storeadminctl passcode` to change the master passcode")
	}

	cat := env.Svc.Catalog()
	section, ok := cat.SectionOf(c.Key)
	if !ok {
		return fmt.Errorf("unknown setting %q", c.Key)
	}

	// Validate the new value alongside what is stored so rules on the other
	// fields of the section do not reject a single-key update.
	input, err := env.Svc.GetBySection(env.Ctx, section)
	if err != nil {
		return err
	}
	input[c.Key] = c.Value

	form, err := env.Svc.Validate(env.Ctx, section, input)
	if err != nil {
		return err
	}
	if msg, bad := form.Errors[c.Key]; bad {
		return errors.New(msg)
	}

	if err := env.Svc.UpdateSettings(env.Ctx, section, map[string]string{c.Key: form.Values[c.Key]}); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Updated %s.%s\n", section, c.Key)
	return nil
}

// PasscodeCmd sets a new master passcode.
type PasscodeCmd struct{}

// Run executes the passcode command.
func (c *PasscodeCmd) Run(env *Env) error {
	first, err := env.Prompt.ReadPassword("New master passcode: ")
	if err != nil {
		return err
	}
	second, err := env.Prompt.ReadPassword("Confirm master passcode: ")
	if err != nil {
		return err
	}
	if first != second {
		return errors.New("passcode confirmation does not match")
	}

	if err := env.Svc.SetPasscode(env.Ctx, first); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Master passcode updated.")
	return nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run(env *Env) error {
	fmt.Fprintf(env.Out, "storeadminctl %s\n", version)
	return nil
}

// PasswordPrompt reads a secret from the operator.
type PasswordPrompt interface {
	ReadPassword(prompt string) (string, error)
}

// terminalPrompt reads without echo when stdin is a terminal and falls back
// to reading a line for piped input.
type terminalPrompt struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

func (p *terminalPrompt) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read passcode: %w", err)
		}
		return string(b), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read passcode: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
