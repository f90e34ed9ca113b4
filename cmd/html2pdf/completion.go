package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // free-form value
	flagBool
	flagFile // file with glob pattern
	flagDir
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long       string
	Short      string
	Type       flagType
	Desc       string
	FileGlob   string // comma-separated, e.g. "*.yaml,*.yml"
	Repeatable bool
}

// commandDef describes a command for completion.
type commandDef struct {
	Name       string
	Desc       string
	Flags      []flagDef
	Args       []string // fixed argument values
	TakesFiles bool
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types and descriptions come from the FlagSet.
type completionMeta struct {
	FileGlob string
	IsDir    bool
	AnyFile  bool
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"config":       {FileGlob: "*.yaml,*.yml,*.toml"},
	"stylesheet":   {FileGlob: "*.css"},
	"output":       {FileGlob: "*.pdf"},
	"metrics-file": {FileGlob: "*.prom"},
	"engine":       {AnyFile: true},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:       f.Name,
			Short:      f.Shorthand,
			Desc:       f.Usage,
			Repeatable: strings.HasSuffix(f.Value.Type(), "Array"),
		}
		if f.Value.Type() == "bool" {
			fd.Type = flagBool
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.AnyFile:
				fd.Type = flagFile
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Convert flags are extracted from the actual FlagSet.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:       "convert",
			Desc:       "Render HTML, a URL or Markdown to PDF",
			Flags:      extractFlagsFromFlagSet(buildConvertFlagSet(&convertFlags{})),
			TakesFiles: true,
		},
		{
			Name:  "doctor",
			Desc:  "Check the engine and environment",
			Flags: []flagDef{{Long: "json", Type: flagBool, Desc: "print the report as JSON"}},
		},
		{Name: "completion", Desc: "Generate shell completion script", Args: []string{"bash", "zsh", "fish"}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Args: commandNames()},
	}
}

func commandNames() []string {
	return []string{"convert", "doctor", "completion", "version", "help"}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(html2pdf completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(html2pdf completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    html2pdf completion fish > ~/.config/fish/completions/html2pdf.fish")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# bash completion for html2pdf\n")
	b.WriteString("_html2pdf() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(commandNames(), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, cmd := range getCommands() {
		fmt.Fprintf(&b, "    %s)\n", cmd.Name)
		writeBashValueCases(&b, cmd.Flags)

		if len(cmd.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(flagWords(cmd.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case len(cmd.Args) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(cmd.Args, " "))
		case cmd.TakesFiles:
			b.WriteString("        COMPREPLY=($(compgen -f -- \"$cur\"))\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _html2pdf html2pdf\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeBashValueCases completes the value of the previous flag.
func writeBashValueCases(b *strings.Builder, flags []flagDef) {
	var cases []string
	for _, f := range flags {
		var action string
		switch f.Type {
		case flagBool:
			continue
		case flagFile:
			if f.FileGlob == "" {
				action = "COMPREPLY=($(compgen -f -- \"$cur\"))"
			} else {
				action = fmt.Sprintf("COMPREPLY=($(compgen -f -X '!@(%s)' -- \"$cur\"))", strings.ReplaceAll(f.FileGlob, ",", "|"))
			}
		case flagDir:
			action = "COMPREPLY=($(compgen -d -- \"$cur\"))"
		default:
			action = "COMPREPLY=()"
		}
		names := "--" + f.Long
		if f.Short != "" {
			names += "|-" + f.Short
		}
		cases = append(cases, fmt.Sprintf("        %s) %s; return ;;\n", names, action))
	}
	if len(cases) == 0 {
		return
	}
	b.WriteString("        case \"$prev\" in\n")
	for _, c := range cases {
		b.WriteString("    " + c)
	}
	b.WriteString("        esac\n")
}

func flagWords(flags []flagDef) []string {
	words := make([]string, 0, 2*len(flags))
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(w io.Writer) error {
	var b strings.Builder
	b.WriteString("#compdef html2pdf\n\n")
	b.WriteString("_html2pdf() {\n")
	b.WriteString("  local -a commands\n")
	b.WriteString("  commands=(\n")
	for _, cmd := range getCommands() {
		fmt.Fprintf(&b, "    '%s:%s'\n", cmd.Name, zshEscape(cmd.Desc))
	}
	b.WriteString("  )\n\n")
	b.WriteString("  if (( CURRENT == 2 )); then\n")
	b.WriteString("    _describe 'command' commands\n")
	b.WriteString("    return\n")
	b.WriteString("  fi\n\n")
	b.WriteString("  case ${words[2]} in\n")

	for _, cmd := range getCommands() {
		fmt.Fprintf(&b, "    %s)\n", cmd.Name)
		var specs []string
		for _, f := range cmd.Flags {
			specs = append(specs, zshFlagSpec(f))
		}
		switch {
		case len(cmd.Args) > 0:
			specs = append(specs, fmt.Sprintf("'1:value:(%s)'", strings.Join(cmd.Args, " ")))
		case cmd.TakesFiles:
			specs = append(specs, "'1:input:_files -g \"*.(html|htm|md|markdown)\"'")
		}
		if len(specs) > 0 {
			b.WriteString("      _arguments \\\n        ")
			b.WriteString(strings.Join(specs, " \\\n        "))
			b.WriteString("\n")
		}
		b.WriteString("      ;;\n")
	}

	b.WriteString("  esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _html2pdf html2pdf\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func zshFlagSpec(f flagDef) string {
	var names, exclusion string
	switch {
	case f.Short != "" && f.Repeatable:
		names = fmt.Sprintf("{-%s,--%s}", f.Short, f.Long)
		exclusion = "'*'"
	case f.Short != "":
		names = fmt.Sprintf("{-%s,--%s}", f.Short, f.Long)
		exclusion = fmt.Sprintf("'(-%s --%s)'", f.Short, f.Long)
	case f.Repeatable:
		names = "--" + f.Long
		exclusion = "'*'"
	default:
		names = "--" + f.Long
	}

	var action string
	switch f.Type {
	case flagBool:
	case flagFile:
		if f.FileGlob == "" {
			action = ":file:_files"
		} else {
			globs := strings.ReplaceAll(strings.ReplaceAll(f.FileGlob, "*.", ""), ",", "|")
			action = fmt.Sprintf(":file:_files -g \"*.(%s)\"", globs)
		}
	case flagDir:
		action = ":directory:_directories"
	default:
		action = ": :"
	}

	return fmt.Sprintf("%s%s'[%s]%s'", exclusion, names, zshEscape(f.Desc), action)
}

func zshEscape(s string) string {
	r := strings.NewReplacer(`'`, `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# fish completion for html2pdf\n")
	b.WriteString("complete -c html2pdf -f\n")

	for _, cmd := range getCommands() {
		fmt.Fprintf(&b, "complete -c html2pdf -n '__fish_use_subcommand' -a %s -d '%s'\n", cmd.Name, fishEscape(cmd.Desc))
	}

	for _, cmd := range getCommands() {
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", cmd.Name)
		for _, f := range cmd.Flags {
			line := fmt.Sprintf("complete -c html2pdf %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagBool:
			case flagFile, flagDir:
				line += " -r -F"
			default:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			b.WriteString(line + "\n")
		}
		switch {
		case len(cmd.Args) > 0:
			fmt.Fprintf(&b, "complete -c html2pdf %s -a '%s'\n", cond, strings.Join(cmd.Args, " "))
		case cmd.TakesFiles:
			fmt.Fprintf(&b, "complete -c html2pdf %s -F\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fishEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
